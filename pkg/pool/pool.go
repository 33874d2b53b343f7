package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/duetml/duet/pkg/log"
)

// ErrClosed is returned by Submit after the pool has begun draining.
var ErrClosed = errors.New("pool: closed")

type job struct {
	name string
	ctx  context.Context
	fn   func(ctx context.Context) error
}

// Pool is a fixed-size worker pool with a bounded queue. Workers are sized
// from CPU count, not request volume; excess work queues and Submit applies
// back-pressure instead of spawning. On Shutdown the pool stops intake and
// drains every queued and in-flight job before returning.
type Pool struct {
	jobs    chan job
	workers int

	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

// New creates a pool with the given worker count and queue capacity.
// Non-positive workers defaults to runtime.NumCPU(); non-positive queueSize
// defaults to four slots per worker.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	return &Pool{
		jobs:    make(chan job, queueSize),
		workers: workers,
	}
}

// Start launches the workers and blocks until the pool is drained.
// Implements srv.Service.
func (p *Pool) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Int("workers", p.workers).Int("queue", cap(p.jobs)).Msg("starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.wg.Wait()
	return nil
}

func (p *Pool) worker(baseCtx context.Context) {
	defer p.wg.Done()
	for j := range p.jobs {
		p.runJob(baseCtx, j)
	}
}

func (p *Pool) runJob(baseCtx context.Context, j job) {
	logger := log.FromCtx(baseCtx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("job", j.name).Msg("pool job panicked")
		}
	}()

	if err := j.fn(j.ctx); err != nil {
		logger.Warn().Err(err).Str("job", j.name).Msg("pool job failed")
	}
}

// Submit enqueues fire-and-forget work. It blocks while the queue is full
// and returns ErrClosed once draining has started. Failures are logged by
// the worker, never propagated.
func (p *Pool) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.jobs <- job{name: name, ctx: ctx, fn: fn}
	return nil
}

// Shutdown stops intake and waits for all queued and in-flight jobs to
// finish. No work is dropped or cancelled mid-flight.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	log.FromCtx(ctx).Info().Msg("worker pool drained")
	return nil
}
