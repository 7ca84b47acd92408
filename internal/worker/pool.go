package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// queued pairs a job with its submission position
type queued struct {
	seq int
	job Job
}

// done pairs a result with the submission position of its job
type done struct {
	seq    int
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently.
// Wait returns results in submission order regardless of completion order.
type Pool struct {
	workers       int
	jobQueue      chan queued
	results       chan done
	collected     []done
	collectorDone chan struct{}
	submitted     int
	wg            sync.WaitGroup
	ctx           context.Context
	cancelFunc    context.CancelFunc
	closeOnce     sync.Once
}

// NewPool creates a new worker pool with the specified number of workers.
// Cancelling parent stops workers as Shutdown does.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:       workers,
		jobQueue:      make(chan queued, workers*2), // Buffered to prevent blocking
		results:       make(chan done, workers*2),
		collectorDone: make(chan struct{}),
		ctx:           ctx,
		cancelFunc:    cancel,
	}
}

// Start starts the worker pool and the result collector.
// Results are drained while jobs are still being submitted.
func (p *Pool) Start() {
	go p.collect()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// collect gathers results until the results channel is closed
func (p *Pool) collect() {
	defer close(p.collectorDone)

	for d := range p.results {
		p.collected = append(p.collected, d)
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := item.job.Execute(p.ctx)
			select {
			case p.results <- done{seq: item.seq, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution.
// Submit is not safe for concurrent use; it must be called from one goroutine.
func (p *Pool) Submit(job Job) {
	item := queued{seq: p.submitted, job: job}
	p.submitted++

	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- item:
	}
}

// Wait waits for all jobs to complete and returns one entry per submitted job,
// in submission order. Jobs dropped by a cancellation have a nil entry.
// Start must have been called.
func (p *Pool) Wait() []Result {
	// Close job queue to signal workers to exit when done
	close(p.jobQueue)

	p.wg.Wait()
	p.closeResults()
	<-p.collectorDone

	results := make([]Result, p.submitted)
	for _, d := range p.collected {
		results[d.seq] = d.result
	}

	p.cancelFunc()
	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
