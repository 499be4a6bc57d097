// Package parallel provides a small fixed-size worker pool used to fan out
// independent per-community placement work.
package parallel

import (
	"fmt"
	"math"
	"sync"
)

// ErrTooManyWorkers is returned when the worker count exceeds the maximum.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// MaxWorkers bounds the pool size so the queue buffer cannot overflow.
const MaxWorkers = math.MaxInt / 2

// WorkerPool runs submitted tasks on a fixed set of goroutines. Tasks must
// not panic; a panicking task is swallowed so one bad community cannot take
// down the workers, and the pool records that it happened.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once

	mu       sync.RWMutex
	closed   bool
	panicked int
}

// NewWorkerPool creates a pool with the given number of workers. A count
// below one is raised to one.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.mu.Lock()
			wp.panicked++
			wp.mu.Unlock()
		}
	}()
	task()
}

// Submit enqueues a task. Returns false if the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Panicked reports how many tasks panicked since the pool started.
func (wp *WorkerPool) Panicked() int {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.panicked
}

// Close drains the queue and stops the workers. Blocks until all submitted
// tasks have finished. Safe to call more than once.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
