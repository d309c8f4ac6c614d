// Package scheduler fires the daily pipeline cycle at a configured UTC time.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-agent/internal/config"
	"github.com/helixir/paper-agent/internal/pipeline"
)

// CycleRunner starts one full pipeline cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, trigger string) (*pipeline.CycleStats, error)
}

// Scheduler triggers the pipeline on a fixed daily cadence.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	logger zerolog.Logger
}

// New creates a scheduler that runs the pipeline daily at clock ("HH:MM",
// UTC). Cycle failures are logged, never propagated; the next day's run
// happens regardless.
func New(clock string, runner CycleRunner, logger zerolog.Logger) (*Scheduler, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "scheduler").Logger()
	c := cron.New(cron.WithLocation(time.UTC))
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	_, err = c.AddFunc(spec, func() {
		if _, err := runner.RunCycle(context.Background(), "scheduled"); err != nil {
			logger.Error().Err(err).Msg("scheduled cycle failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("register cron entry %q: %w", spec, err)
	}

	return &Scheduler{cron: c, spec: spec, logger: logger}, nil
}

// Start begins firing scheduled cycles in a background goroutine.
func (s *Scheduler) Start() {
	s.logger.Info().Str("spec", s.spec).Msg("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once any
// running job has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info().Msg("scheduler stopping")
	return s.cron.Stop()
}
