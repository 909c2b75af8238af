package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestQueueRunsTasksInOrder(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	queue := NewQueue(logger, 16)

	results := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		queue.Enqueue(func(ctx context.Context) {
			results <- i
		})
	}
	queue.Close()

	assert.Equal(t, 1, <-results)
	assert.Equal(t, 2, <-results)
	assert.Equal(t, 3, <-results)
}

func TestQueueRecoversFromPanic(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	queue := NewQueue(logger, 16)

	var ran atomic.Bool
	queue.Enqueue(func(ctx context.Context) {
		panic("boom")
	})
	queue.Enqueue(func(ctx context.Context) {
		ran.Store(true)
	})
	queue.Close()

	assert.True(t, ran.Load(), "a panicking task must not kill the worker")
}

func TestQueueDropsWhenFull(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	queue := NewQueue(logger, 1)
	defer queue.Close()

	release := make(chan struct{})
	queue.Enqueue(func(ctx context.Context) {
		<-release
	})

	// The worker is blocked; the buffer holds one more task, anything
	// beyond that is dropped instead of blocking the caller.
	var executed atomic.Int32
	deadline := time.Now().Add(time.Second)
	for i := 0; i < 10; i++ {
		queue.Enqueue(func(ctx context.Context) {
			executed.Add(1)
		})
	}
	close(release)

	for executed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.LessOrEqual(t, executed.Load(), int32(1))
}

func TestQueueEnqueueAfterCloseIsNoOp(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	queue := NewQueue(logger, 16)
	queue.Close()

	var ran atomic.Bool
	assert.NotPanics(t, func() {
		queue.Enqueue(func(ctx context.Context) {
			ran.Store(true)
		})
	})

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load(), "tasks enqueued after Close must be dropped")
}

func TestQueueCloseWaitsForInFlightTask(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	queue := NewQueue(logger, 16)

	var done atomic.Bool
	queue.Enqueue(func(ctx context.Context) {
		time.Sleep(50 * time.Millisecond)
		done.Store(true)
	})
	queue.Close()

	assert.True(t, done.Load())
}
