package delivery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/time-capsule/pkg/logger"
)

const DefaultInterval = 60 * time.Second

const unlockTimeout = 2 * time.Second

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrNotRunning     = errors.New("scheduler not running")
)

// SweepRunner is the unit of work a Scheduler triggers on every tick.
type SweepRunner interface {
	Sweep(ctx context.Context) Report
}

type SchedulerConfig struct {
	Interval time.Duration
	// Locker, when set, must be acquired before each sweep.
	Locker  Locker
	Metrics *Metrics
}

// Scheduler runs a sweep immediately on Start, then once per interval.
// At most one sweep is in flight per scheduler: a tick that arrives while
// the previous sweep is still running is skipped and logged.
type Scheduler struct {
	runner SweepRunner
	config SchedulerConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	inFlight atomic.Bool
}

func NewScheduler(runner SweepRunner, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Scheduler{runner: runner, config: config}
}

func (s *Scheduler) Interval() time.Duration {
	return s.config.Interval
}

// Start begins the background loop. The loop ends when ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.run(loopCtx)
	logger.Info("delivery scheduler started", "interval", s.config.Interval.String())
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}
	s.cancel()
	s.wg.Wait()
	s.running = false
	logger.Info("delivery scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		logger.Warn("previous delivery sweep still running, skipping tick", "interval", s.config.Interval.String())
		s.config.Metrics.RecordSkip("overlap")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)
		s.execute(ctx)
	}()
}

func (s *Scheduler) execute(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("delivery sweep panicked", "panic", r)
		}
	}()

	if s.config.Locker != nil {
		ok, err := s.config.Locker.TryLock(ctx)
		if err != nil {
			logger.Warn("failed to acquire sweep lock, skipping tick", "error", err)
			s.config.Metrics.RecordSkip("lock_error")
			return
		}
		if !ok {
			logger.Debug("sweep lock held by another instance, skipping tick")
			s.config.Metrics.RecordSkip("locked")
			return
		}
		defer func() {
			uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
			defer cancel()
			if err := s.config.Locker.Unlock(uctx); err != nil {
				logger.Warn("failed to release sweep lock", "error", err)
			}
		}()
	}

	s.runner.Sweep(ctx)
}
