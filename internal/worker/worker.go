// Package worker provides a bounded worker pool for batch extractions.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"recipe-extraction-api/internal/extractor"
)

// ErrPoolStopped is returned by Submit after Stop.
var ErrPoolStopped = errors.New("worker pool stopped")

// Extractor runs one extraction; *extractor.Pipeline satisfies it.
type Extractor interface {
	Extract(ctx context.Context, req extractor.Request) *extractor.Result
}

// Job represents a task to be executed by a worker.
type Job struct {
	Request    extractor.Request
	ResultChan chan *extractor.Result
	Context    context.Context
}

// WorkerPool manages a pool of workers and a queue of jobs.
type WorkerPool struct {
	JobQueue  chan Job
	Extractor Extractor
	PoolSize  int

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool creates a worker pool; call Start to run it.
func NewWorkerPool(ex Extractor, poolSize int, queueSize int) *WorkerPool {
	if poolSize <= 0 {
		poolSize = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &WorkerPool{
		JobQueue:  make(chan Job, queueSize),
		Extractor: ex,
		PoolSize:  poolSize,
	}
}

// Start initializes the worker pool and starts the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.PoolSize; i++ {
		wp.wg.Add(1)
		go func(workerID int) {
			defer wp.wg.Done()
			log.Printf("Worker %d started", workerID)
			for job := range wp.JobQueue {
				log.Printf("Worker %d processing %s", workerID, job.Request.URL)
				job.ResultChan <- wp.Extractor.Extract(job.Context, job.Request)
			}
			log.Printf("Worker %d stopped", workerID)
		}(i)
	}
}

// Submit queues req and returns the channel its result will arrive on. It
// blocks while the queue is full, until ctx is done.
func (wp *WorkerPool) Submit(ctx context.Context, req extractor.Request) (<-chan *extractor.Result, error) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return nil, ErrPoolStopped
	}

	job := Job{Request: req, ResultChan: make(chan *extractor.Result, 1), Context: ctx}
	select {
	case wp.JobQueue <- job:
		return job.ResultChan, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	log.Println("Stopping worker pool...")
	close(wp.JobQueue)
	wp.mu.Unlock()
	wp.wg.Wait()
}
