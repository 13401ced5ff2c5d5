// Package scheduler runs the periodic lifecycle sweep on a cron schedule.
// Completing an instance does not synchronously generate the next occurrence;
// the sweep restores the one-active-occurrence invariant soon after.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper is implemented by the lifecycle service.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *slog.Logger
	timeout time.Duration
}

func New(sweeper Sweeper, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		logger:  logger,
		timeout: time.Minute,
	}
}

// ScheduleSweep registers the recurring ensure-active pass every interval.
func (s *Scheduler) ScheduleSweep(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("sweep interval must be positive")
	}
	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	return s.cron.AddFunc(spec, s.runSweep)
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.sweeper.Sweep(ctx); err != nil {
		s.logger.Error("lifecycle sweep failed", "error", err)
		return
	}
	s.logger.Debug("lifecycle sweep completed", "duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
