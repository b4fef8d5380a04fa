package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type seedFile struct {
	Agents []*agent.Definition `yaml:"agents"`
}

// ParseSeed decodes a YAML document with a top-level "agents" list.
func ParseSeed(data []byte) ([]*agent.Definition, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse agent seed: %w", err)
	}
	for _, def := range f.Agents {
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("agent %q: %w", def.ID, err)
		}
	}
	return f.Agents, nil
}

// Seed installs the built-in definitions that are missing, then upserts
// every definition from seedPath when set. Built-ins never overwrite
// existing rows; the seed file always does.
func Seed(ctx context.Context, s Store, seedPath string, log *logger.Logger) error {
	defaults, err := ParseSeed(defaultsYAML)
	if err != nil {
		return err
	}

	hasPrimary := true
	if _, err := s.FindPrimary(ctx); errors.Is(err, ErrNotFound) {
		hasPrimary = false
	} else if err != nil {
		return err
	}

	for _, def := range defaults {
		_, err := s.FindByID(ctx, def.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if hasPrimary {
			def.IsPrimary = false
		}
		if err := s.Upsert(ctx, def); err != nil {
			return fmt.Errorf("seed %s: %w", def.ID, err)
		}
		log.Info("seeded agent definition", zap.String("agent_id", def.ID))
	}

	if seedPath == "" {
		return nil
	}
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read agent seed file: %w", err)
	}
	defs, err := ParseSeed(data)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := s.Upsert(ctx, def); err != nil {
			return fmt.Errorf("seed %s: %w", def.ID, err)
		}
	}
	log.Info("loaded agent seed file", zap.String("path", seedPath), zap.Int("count", len(defs)))
	return nil
}
