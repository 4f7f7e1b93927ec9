package scroll

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc/panics"
)

// ErrCancelled marks the outcome of an operation that was superseded or
// cancelled before it settled.
var ErrCancelled = errors.New("async operation cancelled")

// IsCancelled reports whether err is a cancellation rather than a failure
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Status tags a task Result
type Status int

const (
	StatusOK Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Result is the single outcome of one Execute call
type Result[R any] struct {
	Value  R
	Err    error
	Status Status
}

// OK reports whether the task completed and its value may be applied
func (r Result[R]) OK() bool { return r.Status == StatusOK }

// Cancelled reports whether the task was superseded or cancelled
func (r Result[R]) Cancelled() bool { return r.Status == StatusCancelled }

// Task is an asynchronous operation that honours ctx cancellation
type Task[R any] func(ctx context.Context) (R, error)

// Runner runs one kind of task at a time. A Cancel, or a newer Execute,
// invalidates the in-flight call: whatever it eventually returns is reported
// as StatusCancelled and must not be applied.
type Runner[R any] struct {
	mu         sync.Mutex
	generation uint64
	executing  bool
	cancel     context.CancelFunc
}

// Execute runs task and blocks until it settles. Panics inside task are
// recovered and reported as StatusFailed.
func (r *Runner[R]) Execute(ctx context.Context, task Task[R]) Result[R] {
	return r.Begin(ctx, task)()
}

// Begin registers a call, superseding any call in flight, and returns the
// function that runs it to completion. The registration happens before
// Begin returns, so calls keep their order even when the returned function
// runs on another goroutine.
func (r *Runner[R]) Begin(ctx context.Context, task Task[R]) func() Result[R] {
	r.mu.Lock()
	if r.executing {
		r.cancelLocked()
	}
	gen := r.generation
	taskCtx, cancel := context.WithCancel(ctx)
	r.executing = true
	r.cancel = cancel
	r.mu.Unlock()

	return func() Result[R] {
		var (
			value R
			err   error
			pc    panics.Catcher
		)
		pc.Try(func() { value, err = task(taskCtx) })
		if rec := pc.Recovered(); rec != nil {
			err = rec.AsError()
		}
		cancel()

		r.mu.Lock()
		defer r.mu.Unlock()
		if gen != r.generation {
			return Result[R]{Err: ErrCancelled, Status: StatusCancelled}
		}
		r.executing = false
		r.cancel = nil
		if err != nil {
			return Result[R]{Err: err, Status: StatusFailed}
		}
		return Result[R]{Value: value, Status: StatusOK}
	}
}

// Cancel invalidates the in-flight call. No-op when nothing is executing.
func (r *Runner[R]) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.executing {
		return
	}
	r.cancelLocked()
}

// IsCancellable reports whether a call is in flight
func (r *Runner[R]) IsCancellable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executing
}

func (r *Runner[R]) cancelLocked() {
	r.generation++
	r.executing = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
