// Package worker implements the background execution context: one
// dedicated goroutine draining a bounded FIFO queue of jobs.
//
// Every asynchronous platform callback for a camera handle is dispatched
// through a single Worker, which gives the rest of the core two
// guarantees for free:
//
//   - Ordering: jobs run in submission order, one at a time. Callbacks
//     for a device are never reordered and never run concurrently.
//   - Shutdown drain: Close stops intake, runs every job already queued,
//     and only returns once the goroutine has fully exited. No callback
//     executes against state that is being torn down after Close returns.
package worker

import (
	"errors"
	"log/slog"
	"sync"
)

// Public API errors.
var (
	// ErrClosed is returned by Submit after Close has been called.
	ErrClosed = errors.New("worker: closed")
	// ErrQueueFull is returned by Submit when the bounded queue is full.
	// The job is not run.
	ErrQueueFull = errors.New("worker: queue full")
)

// Worker is a single-consumer job queue backed by one goroutine.
//
// Thread-safety: all methods are safe for concurrent use. Close must not
// be called from a job running on the worker itself (it would deadlock
// waiting for its own exit).
type Worker struct {
	mu     sync.Mutex
	jobs   chan func()
	closed bool
	wg     sync.WaitGroup
}

// New creates a Worker with the given queue capacity and starts its
// goroutine. Capacity must be at least 1.
func New(queueSize int) *Worker {
	if queueSize < 1 {
		queueSize = 1
	}
	w := &Worker{
		jobs: make(chan func(), queueSize),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Submit enqueues fn for execution on the worker goroutine.
//
// Non-blocking: if the queue is full the job is rejected with
// ErrQueueFull rather than blocking the caller (platform callback
// threads must never stall on the core). After Close, Submit returns
// ErrClosed.
func (w *Worker) Submit(fn func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	select {
	case w.jobs <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake, drains jobs already queued and joins the worker
// goroutine. Idempotent. Returns once no job is running or will run.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	w.wg.Wait()
	slog.Debug("worker: drained and exited")
}

// loop runs queued jobs in FIFO order until the queue is closed and
// drained.
func (w *Worker) loop() {
	defer w.wg.Done()
	for fn := range w.jobs {
		fn()
	}
}
