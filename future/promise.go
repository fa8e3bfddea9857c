// Package future implements a single-writer, multi-reader result handoff
// channel: a Promise (producer handle) and a Future (consumer handle)
// sharing one result slot, with blocking waits that honor deadlines and
// external interrupts, completion and cancellation callbacks, and
// support for lazily-started producers.
//
// The slot transitions exactly once, from pending to completed (value or
// error) or cancelled. The operation that stores the result
// synchronizes-with (as defined in Go's memory model) the return of any
// wait on the shared slot, such as Future.Result.
package future

// Promise is the producer handle: write access to one result slot. The
// first write wins; every later write is a no-op. Promise handles may be
// copied freely, all aliasing the same slot.
type Promise[T any] struct {
	state *state[T]
}

// SetResult marks the slot completed with val. It reports false, and
// changes nothing, if the slot is already terminal. Completion triggers
// done-callback dispatch and wakes every waiter before SetResult
// returns.
func (p *Promise[T]) SetResult(val T) bool {
	return p.state.set(val, nil)
}

// SetError marks the slot completed with err. The error is an opaque
// payload: it is replayed verbatim to every consumer, never interpreted.
// Reports false if the slot is already terminal.
func (p *Promise[T]) SetError(err error) bool {
	var zero T
	return p.state.set(zero, err)
}

// Future returns a consumer handle for the slot.
func (p *Promise[T]) Future() *Future[T] {
	return &Future[T]{state: p.state}
}

// Free reports whether no result has been written yet.
func (p *Promise[T]) Free() bool {
	return !p.state.isDone()
}
