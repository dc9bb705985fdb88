package workerpool

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("worker pool is closed")

type Task func() error

type WorkerPoolI interface {
	AddTask(ctx context.Context, task Task) error
	TryAddTask(task Task) bool
	Close()
}

type WorkerPool struct {
	pool   chan Task
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts size workers sharing a queue of the same capacity.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{pool: make(chan Task, size)}

	wp.wg.Add(size)
	for i := 0; i < size; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.pool {
		if err := task(); err != nil {
			zap.L().Error("Task execution failed", zap.Error(err))
		}
	}
}

// AddTask blocks until a worker slot frees up or ctx is done.
func (wp *WorkerPool) AddTask(ctx context.Context, task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.pool <- task:
		return nil
	}
}

// TryAddTask enqueues without waiting and reports whether the task was taken.
func (wp *WorkerPool) TryAddTask(task Task) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}

	select {
	case wp.pool <- task:
		return true
	default:
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.pool)
	}
	wp.mu.Unlock()
	wp.wg.Wait()
}
