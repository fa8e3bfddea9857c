// Package event provides a binary set-once event whose wait can be woken
// by Set, by an interrupt source, or by a deadline.
package event

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/saltfishpr/handoff/interrupt"
)

var clk = clock.New()

// Result is the outcome of a Wait.
type Result int

const (
	// Success means the event was set.
	Success Result = iota
	// Interrupted means the interrupt source woke the wait. The pending
	// state of the source is not consumed; the caller must re-verify it
	// via Source.Pending and treat false as a spurious wake.
	Interrupted
	// Timeout means the deadline elapsed before the event was set.
	Timeout
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Interrupted:
		return "interrupted"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Event starts unset and transitions to set exactly once.
//
// The zero value is not usable; call New.
type Event struct {
	once sync.Once
	done chan struct{}
}

// New returns an unset Event.
func New() *Event {
	return &Event{done: make(chan struct{})}
}

// Set transitions the event to set, waking every current and future
// waiter. It is idempotent and safe to call from any goroutine.
func (e *Event) Set() {
	e.once.Do(func() { close(e.done) })
}

// Signaled reports whether the event is set.
func (e *Event) Signaled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the event is set (Success), src wakes it
// (Interrupted), or deadline elapses (Timeout). A zero deadline waits
// indefinitely. A nil src disables interruption.
//
// A deadline already in the past still observes an already-set event as
// Success.
func (e *Event) Wait(deadline time.Time, src interrupt.Source) Result {
	// Set wins over an expired deadline or a pending wake token.
	if e.Signaled() {
		return Success
	}

	var intr <-chan struct{}
	if src != nil {
		intr = src.C()
	}

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		d := deadline.Sub(clk.Now())
		if d <= 0 {
			return Timeout
		}
		t := clk.Timer(d)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-e.done:
		return Success
	case <-intr:
		return Interrupted
	case <-timeout:
		return Timeout
	}
}
