// Package routine provides panic-safe function execution.
//
// It exists so that user-supplied callbacks (done callbacks on a future,
// tasks submitted to an event loop) can be invoked without a panic in one
// callback aborting delivery to the rest or unwinding library internals.
// A captured panic is surfaced as a *RecoveredError carrying the stack of
// the panicking goroutine.
package routine
