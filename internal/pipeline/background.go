package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// BackgroundRunner is a supervised worker pool for the asynchronous phase.
// Jobs submitted after Drain begins are dropped; Drain blocks until every
// accepted job has completed, so a process shutdown never abandons
// in-flight finalizations.
type BackgroundRunner struct {
	jobs    chan func(ctx context.Context)
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewBackgroundRunner creates a runner with the given queue capacity.
func NewBackgroundRunner(queueSize int) *BackgroundRunner {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &BackgroundRunner{
		jobs: make(chan func(ctx context.Context), queueSize),
	}
}

// Start launches workers consuming the job queue. Jobs run on a context
// detached from ctx's cancellation: Drain already bounds their lifetime,
// and a shutdown signal must not abort finalizations that were accepted
// before it arrived. Values on ctx still flow through.
func (r *BackgroundRunner) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 2
	}
	jobCtx := context.WithoutCancel(ctx)
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for job := range r.jobs {
				job(jobCtx)
			}
		}()
	}
}

// Submit queues a job. Returns false when the runner is draining or the
// queue is full; the caller decides whether that matters.
func (r *BackgroundRunner) Submit(job func(ctx context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	select {
	case r.jobs <- job:
		return true
	default:
		zap.L().Warn("pipeline: background queue full, dropping job")
		return false
	}
}

// Drain stops accepting jobs and waits for the workers to finish the
// queue. Safe to call more than once.
func (r *BackgroundRunner) Drain() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.jobs)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
