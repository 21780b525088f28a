// Package task provides a bounded background worker pool. CPU-heavy work
// (location searches, file loads) is submitted here so the engine's public
// operations never block on it except through an explicit await.
package task

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Errors returned by pool operations.
var (
	ErrPoolNotRunning     = errors.New("worker pool is not running")
	ErrPoolAlreadyRunning = errors.New("worker pool is already running")
	ErrQueueFull          = errors.New("task queue is full")
)

// Pool executes submitted functions on a fixed set of worker goroutines.
// It provides bounded queuing, graceful shutdown, and panic recovery.
type Pool struct {
	queueSize   int
	workerCount int

	// mu guards the queue channel's lifecycle. Submitters hold it for
	// reading across their send so Stop cannot close the channel under a
	// parked send.
	mu      sync.RWMutex
	queue   chan func()
	running atomic.Bool
	wg      sync.WaitGroup

	// Stats
	enqueued  atomic.Uint64
	processed atomic.Uint64
	panicked  atomic.Uint64
}

// Option configures a Pool.
type Option func(*Pool)

// WithQueueSize sets the task queue size.
func WithQueueSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// NewPool creates a worker pool. It must be started before use.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		queueSize:   256,
		workerCount: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start starts the worker goroutines.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrPoolAlreadyRunning
	}
	p.queue = make(chan func(), p.queueSize)
	p.running.Store(true)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return nil
}

// Stop stops accepting tasks, drains the queue, and waits for workers to
// finish or the context to be cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running.Swap(false) {
		p.mu.Unlock()
		return ErrPoolNotRunning
	}
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit enqueues a function for background execution.
// It blocks while the queue is full, honoring context cancellation.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return ErrPoolNotRunning
	}
	p.enqueued.Add(1)
	select {
	case p.queue <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues a function without blocking.
func (p *Pool) TrySubmit(fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return ErrPoolNotRunning
	}
	select {
	case p.queue <- fn:
		p.enqueued.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// IsRunning returns true if the pool accepts tasks.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Stats reports counters since the pool was created.
func (p *Pool) Stats() (enqueued, processed, panicked uint64) {
	return p.enqueued.Load(), p.processed.Load(), p.panicked.Load()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.queue {
		p.execute(fn)
	}
}

func (p *Pool) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			slog.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
	p.processed.Add(1)
}

// Await runs fn on the pool and returns a channel that yields its result.
// Await is a convenience for the engine's "dispatch and await" pattern.
func Await[T any](ctx context.Context, p *Pool, fn func() T) (<-chan T, error) {
	out := make(chan T, 1)
	err := p.Submit(ctx, func() {
		out <- fn()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
