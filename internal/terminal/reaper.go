package terminal

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

// Reaper runs Registry.Cleanup on a cron schedule.
type Reaper struct {
	registry *Registry
	clock    clock.PassiveClock
	cron     *cron.Cron
	logger   *logger.Logger
}

// NewReaper parses schedule (standard cron or @every descriptors) and
// prepares the job. Start must be called to run it.
func NewReaper(registry *Registry, schedule string, clk clock.PassiveClock, log *logger.Logger) (*Reaper, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	log = log.WithFields(zap.String("component", "terminal-reaper"))
	cronLog := cron.PrintfLogger(zap.NewStdLog(log.Zap()))

	r := &Reaper{
		registry: registry,
		clock:    clk,
		logger:   log,
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce() }); err != nil {
		return nil, fmt.Errorf("invalid reap schedule %q: %w", schedule, err)
	}
	r.logger.Info("terminal reaper configured", zap.String("schedule", schedule))
	return r, nil
}

// RunOnce performs one cleanup pass at the current time.
func (r *Reaper) RunOnce() CleanupResult {
	return r.registry.Cleanup(r.clock.Now())
}

func (r *Reaper) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running pass, or for ctx.
func (r *Reaper) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
