// Package interrupt models a process-wide "pending interrupt" as an
// injectable capability.
//
// A Source is consumed by blocking waits (see the event and future
// packages): a receive on C reports that an interrupt may be pending, and
// Pending reports-and-clears the authoritative state. The two are split
// because signal delivery races with wakeups; a wait that is woken must
// re-verify via Pending before giving up, and treat an unverified wake as
// spurious.
//
// SignalSource adapts OS signals for production use. Fake provides a
// deterministic source for tests, including spurious wakes.
package interrupt
