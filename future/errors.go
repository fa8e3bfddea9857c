package future

import "errors"

var (
	// ErrPanic marks a result synthesized from a panicking producer.
	ErrPanic = errors.New("async panic")
	// ErrTimeout reports that a blocking wait hit its deadline before the
	// future became terminal.
	ErrTimeout = errors.New("future timeout")
	// ErrCancelled reports that the future was cancelled. It is both the
	// failure returned by Result on a cancelled future and the cause
	// returned (not raised) by Exception.
	ErrCancelled = errors.New("future cancelled")
	// ErrInterrupted reports that a blocking wait was interrupted by the
	// configured interrupt source.
	ErrInterrupted = errors.New("wait interrupted")
)
