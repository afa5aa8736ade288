package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/nimasrn/time-capsule/pkg/logger"
)

var ErrClosed = errors.New("worker manager closed")

type WorkerHandler = func(ctx context.Context, workerIndex int, job interface{})

// WorkerManager runs a fixed number of goroutines pulling jobs off a
// buffered channel. A panic in the handler is recovered and logged, the
// worker keeps serving.
type WorkerManager struct {
	jobChannel     chan interface{}
	numberOfWorker int
	do             WorkerHandler
	waiter         sync.WaitGroup
	closeOnce      sync.Once
	mu             sync.RWMutex
	closed         bool
}

func NewWorkerManager(bufferSize, numberOfWorkers int) *WorkerManager {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan interface{}, bufferSize),
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Start launches the workers. They exit once the job channel is closed and
// drained, or ctx is done.
func (w *WorkerManager) Start(ctx context.Context) {
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job, ok := <-w.jobChannel:
					if !ok {
						return
					}
					w.run(ctx, index, job)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

func (w *WorkerManager) run(ctx context.Context, index int, job interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[worker] job panicked", "worker", index, "panic", r)
		}
	}()
	w.do(ctx, index, job)
}

// Enqueue publishes a job, blocking while the buffer is full.
func (w *WorkerManager) Enqueue(ctx context.Context, val interface{}) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.jobChannel <- val:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait closes the job channel and blocks until every worker has returned.
func (w *WorkerManager) Wait() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.jobChannel)
		w.mu.Unlock()
	})
	w.waiter.Wait()
}
