// Package main is the entry point for camelot, the terminal session broker.
// One binary serves the WebSocket terminal protocol and the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/constants"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/tracing"
	"github.com/TechnicallyShaun/camelot-sub000/internal/events"
	gateways "github.com/TechnicallyShaun/camelot-sub000/internal/gateway/websocket"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal/pty"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal/shellcmd"

	agenthandlers "github.com/TechnicallyShaun/camelot-sub000/internal/agent/handlers"
	terminalhandlers "github.com/TechnicallyShaun/camelot-sub000/internal/terminal/handlers"
)

func main() {
	configPath := flag.String("config", "", "directory holding config.yaml (also searched: ., /etc/camelot)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "camelot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Load configuration
	cfg, err := config.LoadWithPath(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	log.Info("Starting camelot...", zap.String("addr", cfg.Server.Addr()))

	// 3. Create context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Initialize event bus (in-memory, or NATS if configured)
	eventBus, closeBus, err := events.Provide(cfg.NATS, log)
	if err != nil {
		return err
	}
	defer closeBus()
	if _, err := events.SubscribeAudit(eventBus, log); err != nil {
		return err
	}

	// 5. Open the agent definition store and seed it
	agents, closeStore, err := provideAgentStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 6. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 7. Terminal registry and reaper
	platform := shellcmd.Detect()
	spawner := pty.NewSpawner(pty.Config{Shell: cfg.Terminal.Shell}, log)
	log.Info("Terminal shell resolved",
		zap.String("shell", spawner.Shell()),
		zap.String("platform", platform.String()))

	registry := terminal.NewRegistry(terminal.Deps{
		Agents:   agents,
		Spawner:  spawner,
		Clock:    clock.RealClock{},
		Platform: platform,
		Bus:      eventBus,
		Metrics:  m,
		Logger:   log,
	}, terminal.Config{
		ScrollbackBytes: cfg.Terminal.ScrollbackBytes,
		StartupDelay:    cfg.Terminal.StartupDelay,
		ExitedGrace:     cfg.Terminal.ExitedGrace,
		IdleTimeout:     cfg.Terminal.IdleTimeout,
		DefaultWorkDir:  cfg.Terminal.DefaultWorkDir,
		Cols:            uint16(cfg.Terminal.Cols),
		Rows:            uint16(cfg.Terminal.Rows),
	})

	reaper, err := terminal.NewReaper(registry, cfg.Terminal.ReapSchedule, clock.RealClock{}, log)
	if err != nil {
		return err
	}
	reaper.Start()

	// 8. WebSocket gateway
	gateway, err := gateways.Provide(cfg, registry, m, log)
	if err != nil {
		return err
	}

	// 9. HTTP routes
	router := newRouter(cfg, log, m)
	gateway.SetupRoutes(router)
	agenthandlers.RegisterRoutes(router, agents, log)
	terminalhandlers.RegisterRoutes(router, registry, log)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"service":  "camelot",
			"sessions": registry.GetSessionCount(),
			"clients":  gateway.Hub.GetClientCount(),
			"bus":      eventBus.IsConnected(),
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// 10. Serve until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gateway.Hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down camelot...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := reaper.Stop(shutdownCtx); err != nil {
			log.Warn("Reaper did not stop cleanly", zap.Error(err))
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown error", zap.Error(err))
		}
		registry.Shutdown()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracing shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("camelot stopped with error", zap.Error(err))
		return err
	}
	log.Info("camelot stopped")
	return nil
}
