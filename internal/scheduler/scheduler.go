// Package scheduler drives recurring ingestion cycles on a fixed interval
// with a consecutive-failure fail-safe.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/telemetry"
)

// CycleRunner executes one ingestion cycle.
type CycleRunner interface {
	Run(ctx context.Context) (actions.CycleReport, error)
}

// Config controls the scheduling loop.
type Config struct {
	Interval         time.Duration
	FailureThreshold int
}

// Scheduler runs cycles at a fixed interval. At most one cycle executes at
// a time; a manual check that overlaps a scheduled one waits its turn.
type Scheduler struct {
	runner CycleRunner
	cfg    Config
	clock  actions.Clock
	logger *zap.Logger

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	done     chan struct{}
	lastRun  *time.Time
	failures int
	checkMu  sync.Mutex
}

// New constructs a Scheduler.
func New(runner CycleRunner, cfg Config, clock actions.Clock, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		clock:  clock,
		logger: logger,
	}
}

// Start begins the scheduling loop. An immediate check runs before the
// first tick. Calling Start while already running is a logged no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("scheduler already running")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.logger.Info("scheduler started", zap.Duration("interval", s.cfg.Interval))
	go s.loop(ctx, stop, done)
}

// Stop halts the scheduling loop after any in-flight cycle completes.
// Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("scheduler stopped")
}

// ManualCheck runs a cycle immediately, outside the schedule. It works
// whether or not the loop is running.
func (s *Scheduler) ManualCheck(ctx context.Context) error {
	return s.check(ctx)
}

// Status reports the scheduler's current state for the control API.
func (s *Scheduler) Status() actions.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return actions.RunStatus{
		IsRunning:           s.running,
		LastRunTime:         s.lastRun,
		ConsecutiveFailures: s.failures,
		CheckInterval:       s.cfg.Interval.String(),
	}
}

func (s *Scheduler) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	if err := s.check(ctx); err != nil && s.tripped() {
		s.disarm()
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.check(ctx); err != nil && s.tripped() {
				s.disarm()
				return
			}
		case <-stop:
			return
		case <-ctx.Done():
			s.markStopped()
			return
		}
	}
}

// check runs one cycle. Panics inside a cycle are contained at the cycle
// boundary and count as failures.
func (s *Scheduler) check(ctx context.Context) (err error) {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
		now := s.clock.Now()
		s.mu.Lock()
		s.lastRun = &now
		if err != nil {
			s.failures++
		} else {
			s.failures = 0
		}
		failures := s.failures
		s.mu.Unlock()

		if err != nil {
			telemetry.ObserveCycle("failure")
			s.logger.Error("ingestion cycle failed",
				zap.Int("consecutive_failures", failures),
				zap.Error(err),
			)
		} else {
			telemetry.ObserveCycle("success")
		}
	}()

	report, err := s.runner.Run(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("ingestion cycle complete",
		zap.String("run_id", report.RunID),
		zap.Int("extracted", report.Extracted),
		zap.Int("new", report.New),
		zap.Int("persisted", report.Persisted),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return nil
}

// tripped reports whether the fail-safe threshold has been reached.
func (s *Scheduler) tripped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures >= s.cfg.FailureThreshold
}

// disarm shuts the loop down after a fail-safe trip.
func (s *Scheduler) disarm() {
	if s.markStopped() {
		s.logger.Error("scheduler disabled",
			zap.Int("failure_threshold", s.cfg.FailureThreshold),
		)
	}
}

func (s *Scheduler) markStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	return true
}
