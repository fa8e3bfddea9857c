package future

import (
	"time"

	"github.com/pkg/errors"

	"github.com/saltfishpr/handoff/event"
	"github.com/saltfishpr/handoff/interrupt"
)

// WaitOption configures a blocking wait (Future.Result,
// Future.Exception).
type WaitOption func(*waitOptions)

type waitOptions struct {
	timeout    time.Duration
	hasTimeout bool
	deadline   time.Time
	src        interrupt.Source
	hasSrc     bool
}

// WithTimeout bounds the wait to d from now. Combined with WithDeadline,
// the earlier of the two applies.
func WithTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.timeout = d
		o.hasTimeout = true
	}
}

// WithDeadline bounds the wait to the absolute time t.
func WithDeadline(t time.Time) WaitOption {
	return func(o *waitOptions) {
		o.deadline = t
	}
}

// WithInterrupt makes the wait wake on src, overriding the package
// default from interrupt.SetDefault. A nil src disables interruption for
// this wait.
func WithInterrupt(src interrupt.Source) WaitOption {
	return func(o *waitOptions) {
		o.src = src
		o.hasSrc = true
	}
}

func newWaitOptions(opts []WaitOption) *waitOptions {
	o := &waitOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// waitDeadline reduces timeout and deadline to a single absolute time;
// zero means wait indefinitely.
func (o *waitOptions) waitDeadline() time.Time {
	deadline := o.deadline
	if o.hasTimeout {
		t := time.Now().Add(o.timeout)
		if deadline.IsZero() || t.Before(deadline) {
			deadline = t
		}
	}
	return deadline
}

func (o *waitOptions) source() interrupt.Source {
	if o.hasSrc {
		return o.src
	}
	return interrupt.Default()
}

// waitDone blocks until the slot is terminal, the deadline elapses, or
// an interrupt is pending.
//
// A cancel callback wakes the event so a cancellation requested on
// another goroutine unblocks this wait; both registrations are released
// on every exit path. A wake from the interrupt source is only
// authoritative once src.Pending confirms it: the wake token races with
// actual delivery, so an unconfirmed wake re-enters the wait with the
// same deadline.
func (s *state[T]) waitDone(deadline time.Time, src interrupt.Source) error {
	ev := event.New()

	cancelReg := s.registerCancel(ev.Set)
	defer cancelReg.Unregister()

	reg := s.registerListener(ev.Set)
	defer reg.Unregister()

	for {
		switch ev.Wait(deadline, src) {
		case event.Success:
			return nil
		case event.Timeout:
			return errors.WithStack(ErrTimeout)
		case event.Interrupted:
			if src.Pending() {
				return errors.WithStack(ErrInterrupted)
			}
		}
	}
}
