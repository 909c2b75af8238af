package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Queue runs dispatch work off the request path. Enqueued tasks are
// fire-and-forget: failures and panics stay inside the task and are
// only logged, never reported to the enqueuing caller.
type Queue struct {
	logger *zap.Logger
	tasks  chan func(ctx context.Context)

	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

func NewQueue(logger *zap.Logger, size int) *Queue {
	q := &Queue{
		logger: logger,
		tasks:  make(chan func(ctx context.Context), size),
		done:   make(chan struct{}),
	}

	go q.run()

	return q
}

func (q *Queue) run() {
	defer close(q.done)

	for task := range q.tasks {
		q.execute(task)
	}
}

func (q *Queue) execute(task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic in dispatch task", zap.Any("panic", r))
		}
	}()

	task(context.Background())
}

// Enqueue schedules a task without blocking. If the queue is saturated
// or already closed the task is dropped; the persisted-row fallback for
// a dropped live push still exists only if the task ran, so a drop is
// logged loudly.
func (q *Queue) Enqueue(task func(ctx context.Context)) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.logger.Error("dispatch queue closed, dropping task")
		return
	}

	select {
	case q.tasks <- task:
	default:
		q.logger.Error("dispatch queue full, dropping task")
	}
}

// Close stops accepting tasks and waits for the in-flight ones.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
	})
	<-q.done
}
