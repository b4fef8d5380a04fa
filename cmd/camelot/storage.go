package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent/store"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/db"
)

// provideAgentStore opens the database, prepares the schema and seeds the
// agent definitions. The cleanup closes the pool.
func provideAgentStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, func(), error) {
	pool, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cleanup := func() {
		if err := pool.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}

	agents, err := store.Provide(pool)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("initialize agent store: %w", err)
	}
	if err := store.Seed(ctx, agents, cfg.Agents.SeedFile, log); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("seed agents: %w", err)
	}

	log.Info("Agent store initialized",
		zap.String("driver", cfg.Database.Driver),
		zap.String("path", cfg.Database.Path))
	return agents, cleanup, nil
}
