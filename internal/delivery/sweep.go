package delivery

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/nimasrn/time-capsule/pkg/worker"
)

const defaultCallTimeout = 5 * time.Second

// Report summarizes one sweep. It only feeds metrics and tests.
type Report struct {
	Due       int
	Delivered int
	Failed    int
	QueryErr  error
}

type SweeperConfig struct {
	QueryTimeout   time.Duration
	DeliverTimeout time.Duration
	UpdateTimeout  time.Duration

	// Workers <= 1 processes due messages one by one in store order.
	Workers int

	Guard   Guard
	Metrics *Metrics
	Now     func() time.Time
}

// Sweeper finds due messages, delivers them and marks them delivered.
// A failing message is logged and left due for the next sweep.
type Sweeper struct {
	store    MessageStore
	notifier Notifier
	config   SweeperConfig
}

func NewSweeper(store MessageStore, notifier Notifier, config SweeperConfig) *Sweeper {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = defaultCallTimeout
	}
	if config.DeliverTimeout <= 0 {
		config.DeliverTimeout = defaultCallTimeout
	}
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = defaultCallTimeout
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Sweeper{store: store, notifier: notifier, config: config}
}

// Sweep never panics and never returns an error to its caller.
func (s *Sweeper) Sweep(ctx context.Context) (report Report) {
	start := time.Now()
	var delivered, failed atomic.Int64

	defer func() {
		if r := recover(); r != nil {
			logger.Error("delivery sweep panicked", "panic", r)
		}
		report.Delivered = int(delivered.Load())
		report.Failed = int(failed.Load())
		s.config.Metrics.RecordSweep(report, time.Since(start))
	}()

	now := s.config.Now().UTC()

	qctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	due, err := s.store.FindDue(qctx, now)
	cancel()
	if err != nil {
		logger.Error("failed to query due messages", "error", err)
		report.QueryErr = err
		return report
	}

	report.Due = len(due)
	if len(due) == 0 {
		return report
	}

	handle := func(ctx context.Context, m *model.Message) {
		if err := s.deliver(ctx, m); err != nil {
			failed.Add(1)
			logger.Error("message delivery failed",
				"message_id", m.ID.String(),
				"notifier", s.notifier.Name(),
				"error", err)
			return
		}
		delivered.Add(1)
	}

	if s.config.Workers <= 1 {
		for _, m := range due {
			if ctx.Err() != nil {
				break
			}
			handle(ctx, m)
		}
	} else {
		s.fanOut(ctx, due, handle)
	}

	if ctx.Err() != nil {
		logger.Warn("delivery sweep interrupted", "due", len(due), "handled", delivered.Load()+failed.Load())
	}
	logger.Info("delivery sweep finished",
		"due", len(due),
		"delivered", delivered.Load(),
		"failed", failed.Load(),
		"duration", time.Since(start).String())
	return report
}

func (s *Sweeper) fanOut(ctx context.Context, due []*model.Message, handle func(context.Context, *model.Message)) {
	workers := s.config.Workers
	if workers > len(due) {
		workers = len(due)
	}

	wm := worker.NewWorkerManager(len(due), workers)
	wm.SetWorker(func(ctx context.Context, _ int, job interface{}) {
		handle(ctx, job.(*model.Message))
	})
	wm.Start(ctx)
	for _, m := range due {
		if err := wm.Enqueue(ctx, m); err != nil {
			break
		}
	}
	wm.Wait()
}

// deliver runs the notifier, then flips is_delivered. Panics are turned
// into errors so one message cannot take down the batch.
func (s *Sweeper) deliver(ctx context.Context, m *model.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	id := m.ID.String()

	if !s.alreadyNotified(ctx, id) {
		dctx, cancel := context.WithTimeout(ctx, s.config.DeliverTimeout)
		err := s.notifier.Deliver(dctx, m)
		cancel()
		if err != nil {
			s.config.Metrics.RecordNotifierError(s.notifier.Name())
			return fmt.Errorf("deliver via %s: %w", s.notifier.Name(), err)
		}
		s.markNotified(ctx, id)
	}

	uctx, cancel := context.WithTimeout(ctx, s.config.UpdateTimeout)
	defer cancel()
	if err := s.store.MarkDelivered(uctx, m.ID); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}

	if s.config.Guard != nil {
		if err := s.config.Guard.Clear(uctx, id); err != nil {
			logger.Warn("failed to clear delivery guard", "message_id", id, "error", err)
		}
	}
	return nil
}

// alreadyNotified treats guard errors as "not notified": a duplicate
// notification is preferred over a message that is never delivered.
func (s *Sweeper) alreadyNotified(ctx context.Context, id string) bool {
	if s.config.Guard == nil {
		return false
	}
	gctx, cancel := context.WithTimeout(ctx, s.config.UpdateTimeout)
	defer cancel()
	ok, err := s.config.Guard.Notified(gctx, id)
	if err != nil {
		logger.Warn("failed to check delivery guard", "message_id", id, "error", err)
		return false
	}
	if ok {
		logger.Info("message already notified, retrying mark", "message_id", id)
	}
	return ok
}

func (s *Sweeper) markNotified(ctx context.Context, id string) {
	if s.config.Guard == nil {
		return
	}
	gctx, cancel := context.WithTimeout(ctx, s.config.UpdateTimeout)
	defer cancel()
	if err := s.config.Guard.MarkNotified(gctx, id); err != nil {
		logger.Warn("failed to record delivery guard", "message_id", id, "error", err)
	}
}
