package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// Source is an interrupt capability that blocking waits select on.
//
// A receive on C means an interrupt may be pending; Pending reports
// whether one actually is, clearing it in the same call. After C wakes a
// waiter, Pending returning false must be treated as a spurious wake.
type Source interface {
	// C returns the wake channel. It must be usable from any goroutine
	// and must not be closed while the Source is in use.
	C() <-chan struct{}
	// Pending reports whether an interrupt is pending, and clears it.
	Pending() bool
}

var defaultSource struct {
	mu  sync.RWMutex
	src Source
}

// SetDefault sets the process-wide default Source used by waits that are
// not given one explicitly. A nil Source disables interrupt handling for
// such waits (the initial state).
func SetDefault(src Source) {
	defaultSource.mu.Lock()
	defer defaultSource.mu.Unlock()
	defaultSource.src = src
}

// Default returns the Source set via SetDefault, or nil.
func Default() Source {
	defaultSource.mu.RLock()
	defer defaultSource.mu.RUnlock()
	return defaultSource.src
}

// SignalSource is a Source backed by OS signal delivery. Deliveries latch
// the pending flag and wake at most one token onto C; the latch is
// cleared by Pending. It is safe to use from a worker goroutine while
// another goroutine is blocked on it.
type SignalSource struct {
	c       chan struct{}
	sigs    chan os.Signal
	done    chan struct{}
	pending atomic.Bool
	closed  sync.Once
}

var _ Source = (*SignalSource)(nil)

// NewSignal returns a SignalSource registered for sigs via os/signal.
// Close must be called to release the registration.
func NewSignal(sigs ...os.Signal) *SignalSource {
	s := &SignalSource{
		c:    make(chan struct{}, 1),
		sigs: make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(s.sigs, sigs...)
	go s.forward()
	return s
}

func (s *SignalSource) forward() {
	for {
		select {
		case <-s.done:
			return
		case <-s.sigs:
			s.pending.Store(true)
			select {
			case s.c <- struct{}{}:
			default:
			}
		}
	}
}

// C implements Source.
func (s *SignalSource) C() <-chan struct{} { return s.c }

// Pending implements Source. It reports and clears the latched state.
func (s *SignalSource) Pending() bool {
	return s.pending.Swap(false)
}

// Close unregisters the signal handler and stops the forwarding
// goroutine. It is idempotent.
func (s *SignalSource) Close() {
	s.closed.Do(func() {
		signal.Stop(s.sigs)
		close(s.done)
	})
}
