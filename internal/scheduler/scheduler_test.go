package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mydailyops/dailyops-api/internal/scheduler"
)

type countingSweeper struct {
	calls atomic.Int64
	err   error
}

func (s *countingSweeper) Sweep(ctx context.Context) error {
	s.calls.Add(1)
	return s.err
}

func newScheduler(sweeper scheduler.Sweeper) *scheduler.Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return scheduler.New(sweeper, logger)
}

func TestScheduleSweep_RejectsNonPositiveInterval(t *testing.T) {
	s := newScheduler(&countingSweeper{})

	for _, interval := range []time.Duration{0, -time.Minute} {
		if _, err := s.ScheduleSweep(interval); err == nil {
			t.Errorf("interval %s: expected error, got nil", interval)
		}
	}
}

func TestScheduleSweep_RunsPeriodically(t *testing.T) {
	sweeper := &countingSweeper{}
	s := newScheduler(sweeper)

	if _, err := s.ScheduleSweep(time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.After(5 * time.Second)
	for sweeper.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweep did not run within 5s")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestScheduler_StopWaitsForRunningSweep(t *testing.T) {
	sweeper := &countingSweeper{}
	s := newScheduler(sweeper)

	if _, err := s.ScheduleSweep(time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return within 5s")
	}
}
