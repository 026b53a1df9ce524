// Package loop provides the single-threaded task queue that owns a document,
// its address bar and its router.
//
// Every mutation of those objects happens inside a task. Tasks posted while
// another task runs are queued behind it, never run re-entrantly, which is
// how deferred work ("run after the current task") is expressed.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"go.uber.org/atomic"
)

var (
	// ErrClosed is returned when posting to a closed loop.
	ErrClosed = errors.New("loop: closed")

	// ErrQueueFull is returned when the task queue is at capacity.
	ErrQueueFull = errors.New("loop: queue full")
)

// DefaultQueueSize is the task queue capacity used when none is configured.
const DefaultQueueSize = 256

// Loop is a single-threaded task queue.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	closed atomic.Bool

	executed atomic.Uint64
	panics   atomic.Uint64

	onIdle func()
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the task queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan func(), n)
		}
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithIdle registers a callback run after a task when the queue is empty.
// Sessions use it to flush the document to the browser once per burst.
func WithIdle(fn func()) Option {
	return func(l *Loop) {
		l.onIdle = fn
	}
}

// New creates a loop. It does nothing until Run or Drain is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:  make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn to run after every task queued before it.
// It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	default:
		l.logger.Warn("task queue full, discarding task")
		return ErrQueueFull
	}
}

// Run executes tasks until ctx is cancelled or the loop is closed.
// Only one goroutine may call Run, and Drain must not be used concurrently.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.tasks:
			l.execute(fn)
			if len(l.tasks) == 0 && l.onIdle != nil {
				l.onIdle()
			}
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Drain synchronously runs queued tasks, including tasks they post, until
// the queue is empty. It returns the number of tasks executed. Drain is the
// driver for tests and for callers that own the loop goroutine themselves.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.tasks:
			l.execute(fn)
			n++
		default:
			if n > 0 && l.onIdle != nil {
				l.onIdle()
			}
			return n
		}
	}
}

// execute runs fn, recovering panics so one bad task cannot kill the loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Inc()
			l.logger.Error("task panic",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	l.executed.Inc()
	fn()
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	return len(l.tasks)
}

// Stats returns the number of executed tasks and recovered panics.
func (l *Loop) Stats() (executed, panics uint64) {
	return l.executed.Load(), l.panics.Load()
}

// Close stops the loop. Queued tasks are discarded.
func (l *Loop) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.done)
}

// Done returns a channel that's closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
