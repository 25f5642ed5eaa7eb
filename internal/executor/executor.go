// Package executor provides the serialized task queue that backs every
// stage and mixer instance: one dedicated worker goroutine, two task
// priorities, and future-carrying enqueues for invoke-style calls. The
// queue is the sole mechanism serializing access to an instance's state;
// components built on it need no additional locking.
package executor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Priority orders queued tasks. It affects ordering only: a running task
// is never preempted.
type Priority int

const (
	// Normal is the default priority, used for per-tick render work.
	Normal Priority = iota
	// High is used for control-plane operations so they overtake
	// queued render work.
	High
)

// ErrClosed is returned by futures whose task was discarded because the
// executor shut down before running it.
var ErrClosed = errors.New("executor closed")

type task struct {
	run    func()
	cancel func()
}

// Executor runs queued tasks strictly one at a time on a dedicated
// worker goroutine, high priority first, FIFO within a priority.
type Executor struct {
	log *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	high   []task
	normal []task
	closed bool

	stopped chan struct{}
}

// New creates an executor and starts its worker. The name appears in log
// records for tasks that panic without an observer.
func New(name string) *Executor {
	e := &Executor{
		log:     slog.With("component", "executor", "name", name),
		stopped: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

func (e *Executor) run() {
	defer close(e.stopped)
	for {
		e.mu.Lock()
		for !e.closed && len(e.high) == 0 && len(e.normal) == 0 {
			e.cond.Wait()
		}
		if e.closed {
			// Discard queued-but-not-started tasks; their futures
			// fail with ErrClosed.
			pending := append(e.high, e.normal...)
			e.high, e.normal = nil, nil
			e.mu.Unlock()
			for _, t := range pending {
				t.cancel()
			}
			return
		}
		var t task
		if len(e.high) > 0 {
			t = e.high[0]
			e.high = e.high[1:]
		} else {
			t = e.normal[0]
			e.normal = e.normal[1:]
		}
		e.mu.Unlock()
		t.run()
	}
}

func (e *Executor) enqueue(p Priority, t task) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	if p == High {
		e.high = append(e.high, t)
	} else {
		e.normal = append(e.normal, t)
	}
	e.mu.Unlock()
	e.cond.Signal()
	return true
}

// Begin enqueues fn fire-and-forget. A panic in fn is recovered and
// logged; it does not affect subsequently queued tasks.
func (e *Executor) Begin(p Priority, fn func()) {
	ok := e.enqueue(p, task{
		run: func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Warn("queued task panicked", "panic", r)
				}
			}()
			fn()
		},
		cancel: func() {},
	})
	if !ok {
		e.log.Warn("task dropped, executor closed")
	}
}

// Close discards queued-but-not-started tasks, lets the in-flight task
// finish, and waits for the worker to exit. Safe to call more than once.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.stopped
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	<-e.stopped
}

// Future is the completion handle of an invoke-style task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Await blocks until the task completes and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.val, f.err
}

func resolved[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// BeginInvoke enqueues fn and returns a future for its result. A panic
// in fn is captured into the future's error and does not corrupt later
// tasks.
func BeginInvoke[T any](e *Executor, p Priority, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	ok := e.enqueue(p, task{
		run: func() {
			defer func() {
				if r := recover(); r != nil {
					f.err = fmt.Errorf("task panicked: %v", r)
				}
				close(f.done)
			}()
			f.val, f.err = fn()
		},
		cancel: func() {
			f.err = ErrClosed
			close(f.done)
		},
	})
	if !ok {
		return resolved[T](ErrClosed)
	}
	return f
}

// Invoke enqueues fn and blocks until it has run. Callers block
// indefinitely behind already-queued work; there are no timeouts.
func Invoke[T any](e *Executor, p Priority, fn func() (T, error)) (T, error) {
	return BeginInvoke(e, p, fn).Await()
}
