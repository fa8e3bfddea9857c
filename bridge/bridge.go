// Package bridge exposes a Future's completion as an awaitable owned by
// a cooperative event loop, with two-way cancellation propagation.
//
// The host loop is an external collaborator reduced to two contracts:
// Loop (a thread-safe scheduling primitive) and Awaitable (a
// single-assignment completion cell whose callbacks run on the loop).
// Bind links any implementations of the two to a Future; AsAwaitable is
// the convenience for the in-repo eventloop implementation.
package bridge

import (
	"errors"

	"github.com/joeycumines/logiface"

	"github.com/saltfishpr/handoff/eventloop"
	"github.com/saltfishpr/handoff/future"
)

// Loop is the scheduling half of the host-loop contract.
// CallSoonThreadsafe must be callable from any goroutine and must run
// the closure on the loop's own thread; it is the only permitted way to
// touch loop-owned state from outside. It fails once the loop is shut
// down.
type Loop interface {
	CallSoonThreadsafe(fn func()) error
}

// Awaitable is the completion half of the host-loop contract: a
// single-assignment cell owned by the loop. Completion attempts on an
// already-done awaitable must be silently ignored (reporting false), and
// done callbacks must be invoked on the loop.
type Awaitable interface {
	SetResult(val any) bool
	SetError(err error) bool
	Cancel() bool
	Done() bool
	Cancelled() bool
	AddDoneCallback(fn func())
}

var _ Loop = (*eventloop.Loop)(nil)
var _ Awaitable = (*eventloop.Awaitable)(nil)

// logger is nil-safe; logging stays disabled until SetLogger is called.
var logger *logiface.Logger[logiface.Event]

// SetLogger sets the logger used to report completions rejected by a
// shut-down loop. It should be called once, at program start.
func SetLogger(l *logiface.Logger[logiface.Event]) {
	logger = l
}

// AsAwaitable creates an awaitable on loop and binds it to f.
func AsAwaitable[T any](loop *eventloop.Loop, f *future.Future[T]) (*eventloop.Awaitable, error) {
	if loop == nil {
		return nil, errors.New("bridge: loop cannot be nil")
	}
	aw := loop.CreateAwaitable()
	if err := Bind(loop, aw, f); err != nil {
		return nil, err
	}
	return aw, nil
}

// Bind links f and aw so that f's completion completes aw and cancelling
// aw cancels f.
//
// Forward direction: when f becomes terminal, a completion closure is
// marshaled onto the loop; it does nothing if aw is already done,
// cancels aw if f was cancelled, propagates a stored error, and
// otherwise delivers the value. Reverse direction: a done callback on aw
// cancels f when aw finishes cancelled. Both directions are idempotent.
//
// Bind forces f, matching the blocking consumers, so awaiting a lazy
// future starts its producer.
func Bind[T any](loop Loop, aw Awaitable, f *future.Future[T]) error {
	if loop == nil {
		return errors.New("bridge: loop cannot be nil")
	}
	if aw == nil {
		return errors.New("bridge: awaitable cannot be nil")
	}
	if f == nil {
		return errors.New("bridge: future cannot be nil")
	}

	f.AddDoneCallback(func(src *future.Future[T]) {
		if err := loop.CallSoonThreadsafe(func() {
			completeAwaitable(aw, src)
		}); err != nil {
			logger.Warning().
				Err(err).
				Log("bridge: loop rejected completion")
		}
	})

	aw.AddDoneCallback(func() {
		if aw.Cancelled() {
			f.Cancel()
		}
	})

	f.Force()
	return nil
}

// completeAwaitable runs on the loop goroutine with src already
// terminal, so the Exception/Result calls below return immediately.
func completeAwaitable[T any](aw Awaitable, src *future.Future[T]) {
	if aw.Done() {
		return
	}
	if src.Cancelled() {
		aw.Cancel()
		return
	}
	if cause, _ := src.Exception(); cause != nil {
		aw.SetError(cause)
		return
	}
	val, _ := src.Result()
	aw.SetResult(val)
}
