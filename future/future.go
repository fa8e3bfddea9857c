package future

import (
	"github.com/pkg/errors"
)

// Future is the consumer handle: it observes the result of an
// asynchronous operation. Results can be consumed three ways:
//
//  1. Blocking the calling goroutine with Result or Exception, with an
//     optional timeout, deadline and interrupt source.
//  2. Registering a completion callback with AddDoneCallback.
//  3. Bridging onto a cooperative event loop; see the bridge package.
//
// All operations other than Result and Exception are non-blocking and
// safe from any goroutine, including from inside a done or cancel
// callback.
type Future[T any] struct {
	state *state[T]
}

// Done reports whether the future is terminal (completed or cancelled).
func (f *Future[T]) Done() bool {
	return f.state.isDone()
}

// Cancelled reports whether the future was cancelled.
func (f *Future[T]) Cancelled() bool {
	return f.state.isCancelled()
}

// Cancel requests cancellation. If the slot is still pending it becomes
// cancelled: cancel callbacks fire first (observing the cancelled
// state), then waiters wake and done callbacks dispatch. Cancel reports
// false, and does nothing, on an already-terminal future.
//
// Cancellation is cooperative: it does not stop in-flight producer work.
// A producer that wants to halt early must observe Cancelled itself.
func (f *Future[T]) Cancel() bool {
	return f.state.cancel(errors.WithStack(ErrCancelled))
}

// Force ensures a lazily-started producer begins executing. It is called
// automatically by Result and Exception, but must be called explicitly
// when only AddDoneCallback is used. It is idempotent and a no-op for
// eagerly-started futures.
func (f *Future[T]) Force() {
	f.state.forceStart()
}

// AddDoneCallback registers cb to run exactly once when the future
// becomes terminal, with the future as its argument. Callbacks
// registered before completion run in registration order; a callback
// added after completion runs synchronously inline. A panicking callback
// is logged and suppressed; it never blocks delivery to the others.
func (f *Future[T]) AddDoneCallback(cb func(*Future[T])) {
	f.state.addCallback(cb)
}

// RemoveDoneCallback removes every registered callback with the same
// identity as cb and returns the number removed (0 for callbacks that
// were never registered). Identity is the function value's code pointer,
// so distinct closures over one function literal match each other. When
// the last callback is removed the underlying completion registration is
// released.
func (f *Future[T]) RemoveDoneCallback(cb func(*Future[T])) int {
	return f.state.removeCallbacks(cb)
}

// OnCancel registers fn to run if the future is cancelled while still
// pending; it never fires after a completed result or on a future that
// was already terminal at registration time. The returned registration
// must be released by the caller (typically via defer) and is safe to
// release on every exit path, including after fn has fired.
//
// Registering from inside a firing cancel callback is not supported: the
// registry is drained in a single pass.
func (f *Future[T]) OnCancel(fn func()) *CancelRegistration {
	return f.state.registerCancel(fn)
}

// Result blocks until the future is terminal, then returns its value.
//
// Failure modes: ErrTimeout if the wait deadline elapses, ErrInterrupted
// if the interrupt source reports a pending interrupt, ErrCancelled if
// the future was cancelled, or the producer's stored error verbatim.
// Waiting failures are synthesized per call; they are never stored in
// the slot. Result forces lazy producers.
func (f *Future[T]) Result(opts ...WaitOption) (T, error) {
	var zero T
	if err := f.wait(opts); err != nil {
		return zero, err
	}
	s := f.state
	if s.err != nil {
		return zero, s.err
	}
	return s.val, nil
}

// Exception blocks like Result but returns the stored failure as a
// value: cause is the producer's error, an error satisfying
// errors.Is(cause, ErrCancelled) for a cancelled future, or nil for a
// successful result. err reports only waiting failures (ErrTimeout,
// ErrInterrupted).
func (f *Future[T]) Exception(opts ...WaitOption) (cause error, err error) {
	if err := f.wait(opts); err != nil && !errors.Is(err, ErrCancelled) {
		return nil, err
	}
	return f.state.err, nil
}

func (f *Future[T]) wait(opts []WaitOption) error {
	f.Force()
	if f.state.isDone() {
		if f.state.isCancelled() {
			return f.state.err
		}
		return nil
	}
	o := newWaitOptions(opts)
	if err := f.state.waitDone(o.waitDeadline(), o.source()); err != nil {
		return err
	}
	if f.state.isCancelled() {
		return f.state.err
	}
	return nil
}
