package eventloop

import (
	"errors"
	"sync"
)

var (
	// ErrCancelled reports that the awaitable was cancelled.
	ErrCancelled = errors.New("eventloop: awaitable cancelled")
	// ErrPending reports Result being read before completion.
	ErrPending = errors.New("eventloop: awaitable not done")
)

const (
	awaitPending int32 = iota
	awaitCompleted
	awaitCancelled
)

// Awaitable is a loop-owned single-assignment result cell. Exactly one
// of SetResult, SetError or Cancel takes effect; every later completion
// attempt is silently ignored (reported by the bool result). Done
// callbacks always run on the loop goroutine, never inline on the
// completing goroutine.
type Awaitable struct {
	loop *Loop

	mu        sync.Mutex
	state     int32
	val       any
	err       error
	callbacks []func()
}

// CreateAwaitable returns a new pending Awaitable owned by the loop.
func (l *Loop) CreateAwaitable() *Awaitable {
	return &Awaitable{loop: l}
}

// SetResult completes the awaitable with val. Reports false if it was
// already done.
func (a *Awaitable) SetResult(val any) bool {
	return a.settle(awaitCompleted, val, nil)
}

// SetError completes the awaitable with err. Reports false if it was
// already done.
func (a *Awaitable) SetError(err error) bool {
	return a.settle(awaitCompleted, nil, err)
}

// Cancel completes the awaitable as cancelled. Reports false if it was
// already done.
func (a *Awaitable) Cancel() bool {
	return a.settle(awaitCancelled, nil, ErrCancelled)
}

// Done reports whether the awaitable has completed or been cancelled.
func (a *Awaitable) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state != awaitPending
}

// Cancelled reports whether the awaitable was cancelled.
func (a *Awaitable) Cancelled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == awaitCancelled
}

// Result returns the outcome: ErrPending while not done, ErrCancelled
// after cancellation, otherwise the completion value or error.
func (a *Awaitable) Result() (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == awaitPending {
		return nil, ErrPending
	}
	return a.val, a.err
}

// AddDoneCallback schedules fn to run on the loop once the awaitable is
// done. Callbacks added after completion are scheduled immediately; none
// run inline.
func (a *Awaitable) AddDoneCallback(fn func()) {
	a.mu.Lock()
	if a.state != awaitPending {
		a.mu.Unlock()
		a.schedule(fn)
		return
	}
	a.callbacks = append(a.callbacks, fn)
	a.mu.Unlock()
}

func (a *Awaitable) settle(state int32, val any, err error) bool {
	a.mu.Lock()
	if a.state != awaitPending {
		a.mu.Unlock()
		return false
	}
	a.state = state
	a.val = val
	a.err = err
	cbs := a.callbacks
	a.callbacks = nil
	a.mu.Unlock()

	for _, fn := range cbs {
		a.schedule(fn)
	}
	return true
}

func (a *Awaitable) schedule(fn func()) {
	if err := a.loop.CallSoonThreadsafe(fn); err != nil {
		a.loop.logger.Warning().
			Err(err).
			Log("eventloop: dropping awaitable callback")
	}
}
