package future

import (
	"fmt"
	"runtime/debug"
)

// New creates a linked promise and future pair.
func New[T any]() (*Promise[T], *Future[T]) {
	s := newState[T]()
	return &Promise[T]{state: s}, &Future[T]{state: s}
}

// NewLazy creates a pair whose producer starts only on demand: start is
// submitted to the package executor the first time the future is forced
// (Force, or implicitly by Result/Exception). start runs at most once; a
// panic in start completes the future with ErrPanic instead of leaving
// waiters blocked.
func NewLazy[T any](start func(*Promise[T])) (*Promise[T], *Future[T]) {
	p, f := New[T]()
	f.state.force = func() {
		executor.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					p.SetError(fmt.Errorf("%w, err=%v, stack=%s", ErrPanic, r, debug.Stack()))
				}
			}()
			start(p)
		})
	}
	return p, f
}

// Completed returns a future already completed with val.
func Completed[T any](val T) *Future[T] {
	p, f := New[T]()
	p.SetResult(val)
	return f
}

// Failed returns a future already completed with err.
func Failed[T any](err error) *Future[T] {
	p, f := New[T]()
	p.SetError(err)
	return f
}

// Async runs fn on the package executor and returns a future for its
// result. A panic in fn completes the future with ErrPanic.
func Async[T any](fn func() (T, error)) *Future[T] {
	return Submit(executor, fn)
}

// Submit is Async with an explicit executor.
func Submit[T any](e Executor, fn func() (T, error)) *Future[T] {
	p, f := New[T]()
	e.Submit(func() {
		var val T
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w, err=%v, stack=%s", ErrPanic, r, debug.Stack())
			}
			if err != nil {
				p.SetError(err)
			} else {
				p.SetResult(val)
			}
		}()
		val, err = fn()
	})
	return f
}
