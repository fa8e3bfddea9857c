package interrupt

import "sync/atomic"

// Fake is a deterministic Source for tests.
//
// Raise models a real interrupt: it latches the pending flag and wakes a
// waiter. Wake models the race the wait loop must tolerate: it wakes a
// waiter without latching anything, so the woken wait observes
// Pending() == false and resumes.
type Fake struct {
	c       chan struct{}
	pending atomic.Bool
}

var _ Source = (*Fake)(nil)

// NewFake returns an idle Fake.
func NewFake() *Fake {
	return &Fake{c: make(chan struct{}, 1)}
}

// C implements Source.
func (f *Fake) C() <-chan struct{} { return f.c }

// Pending implements Source. It reports and clears the latched state.
func (f *Fake) Pending() bool {
	return f.pending.Swap(false)
}

// Raise latches a pending interrupt and wakes a waiter.
func (f *Fake) Raise() {
	f.pending.Store(true)
	f.wake()
}

// Wake wakes a waiter without latching an interrupt (a spurious wake).
func (f *Fake) Wake() {
	f.wake()
}

func (f *Fake) wake() {
	select {
	case f.c <- struct{}{}:
	default:
	}
}
