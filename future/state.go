package future

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/saltfishpr/handoff/routine"
)

const (
	statePending uint32 = iota
	stateCommitting
	stateCompleted
	stateCancelled
)

// state is the shared result slot. It is jointly referenced by every
// Promise and Future handle derived from one constructor call.
//
// The phase transitions exactly once, pending -> committing -> terminal
// (completed or cancelled). The CAS to committing elects the single
// writer; the terminal phase is published before any callback or
// listener runs, so re-entrant Done/Cancelled/Cancel calls from inside a
// callback observe the terminal state and cannot deadlock (no lock is
// held during dispatch).
type state[T any] struct {
	noCopy noCopy

	phase atomic.Uint32

	mu  sync.Mutex
	val T
	err error

	// Done callbacks, in registration order. The dispatch listener in
	// cbReg is armed while the list is non-empty.
	callbacks []doneEntry[T]
	cbReg     *registration[T]

	// Token-keyed registries; removal by token is O(1) and idempotent.
	cancels      map[uint64]func()
	nextCancel   uint64
	listeners    map[uint64]func()
	nextListener uint64

	forceOnce sync.Once
	force     func()
}

type doneEntry[T any] struct {
	fn  func(*Future[T])
	key uintptr
}

func newState[T any]() *state[T] {
	return &state[T]{
		cancels:   make(map[uint64]func()),
		listeners: make(map[uint64]func()),
	}
}

func (s *state[T]) isDone() bool {
	p := s.phase.Load()
	return p == stateCompleted || p == stateCancelled
}

func (s *state[T]) isCancelled() bool {
	return s.phase.Load() == stateCancelled
}

// set transitions to stateCompleted with the given result. The first
// write wins; later calls report false and change nothing.
func (s *state[T]) set(val T, err error) bool {
	return s.commit(stateCompleted, func() {
		s.val = val
		s.err = err
	})
}

// cancel transitions to stateCancelled. Cancel callbacks observe the
// slot already cancelled, then listeners are woken and done callbacks
// dispatched (cancellation is a completion for callback purposes).
func (s *state[T]) cancel(cause error) bool {
	return s.commit(stateCancelled, func() {
		s.err = cause
	})
}

func (s *state[T]) commit(terminal uint32, apply func()) bool {
	if !s.phase.CompareAndSwap(statePending, stateCommitting) {
		return false
	}

	s.mu.Lock()
	apply()
	var cancels []func()
	if terminal == stateCancelled {
		cancels = drainTokens(s.cancels)
	}
	s.cancels = nil
	listeners := drainTokens(s.listeners)
	s.listeners = nil
	s.phase.Store(terminal)
	s.mu.Unlock()

	for _, fn := range cancels {
		fn()
	}
	for _, fn := range listeners {
		fn()
	}
	return true
}

// registerListener arranges for notify to run once the slot becomes
// terminal. If it already is, notify runs immediately, before
// registerListener returns.
func (s *state[T]) registerListener(notify func()) *registration[T] {
	s.mu.Lock()
	if s.isDone() {
		s.mu.Unlock()
		notify()
		return &registration[T]{}
	}
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = notify
	s.mu.Unlock()
	return &registration[T]{st: s, id: id}
}

// registerCancel arranges for fn to run if the slot is cancelled while
// pending. Registration on a terminal slot never fires.
func (s *state[T]) registerCancel(fn func()) *CancelRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isDone() {
		return &CancelRegistration{}
	}
	id := s.nextCancel
	s.nextCancel++
	s.cancels[id] = fn
	return &CancelRegistration{unregister: func() {
		s.mu.Lock()
		delete(s.cancels, id)
		s.mu.Unlock()
	}}
}

// addCallback appends a done callback, invoking it synchronously inline
// when the slot is already terminal. The first stored callback arms the
// dispatch listener.
func (s *state[T]) addCallback(cb func(*Future[T])) {
	s.mu.Lock()
	if s.isDone() {
		s.mu.Unlock()
		s.invoke(cb)
		return
	}
	s.callbacks = append(s.callbacks, doneEntry[T]{fn: cb, key: callbackKey(cb)})
	if s.cbReg == nil {
		id := s.nextListener
		s.nextListener++
		s.listeners[id] = s.dispatchCallbacks
		s.cbReg = &registration[T]{st: s, id: id}
	}
	s.mu.Unlock()
}

// removeCallbacks removes every entry matching cb's identity and returns
// the count. Removing the last entry releases the dispatch listener, so
// an unused slot holds no waiter registration.
func (s *state[T]) removeCallbacks(cb func(*Future[T])) int {
	key := callbackKey(cb)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.callbacks)
	s.callbacks = slices.DeleteFunc(s.callbacks, func(e doneEntry[T]) bool {
		return e.key == key
	})
	removed := n - len(s.callbacks)
	if len(s.callbacks) == 0 && s.cbReg != nil {
		delete(s.listeners, s.cbReg.id)
		s.cbReg = nil
	}
	return removed
}

// dispatchCallbacks runs as a completion listener. The list is moved out
// under the lock so concurrent add/remove cannot race the iteration.
func (s *state[T]) dispatchCallbacks() {
	s.mu.Lock()
	cbs := s.callbacks
	s.callbacks = nil
	s.cbReg = nil
	s.mu.Unlock()
	for _, e := range cbs {
		s.invoke(e.fn)
	}
}

// invoke runs a single done callback with the future handle as its
// argument. A panic is recovered and logged; it never aborts delivery to
// the remaining callbacks and never turns a completion into a failure.
func (s *state[T]) invoke(cb func(*Future[T])) {
	f := &Future[T]{state: s}
	routine.RunSafe(func() {
		cb(f)
	}, func(r interface{}) {
		logger.Err().
			Err(routine.NewRecovered(3, r).AsError()).
			Log("future: done callback panicked")
	})
}

func (s *state[T]) forceStart() {
	if s.force != nil {
		s.forceOnce.Do(s.force)
	}
}

// registration is a revocable interest in the completion of a slot. The
// zero value is a no-op (used for already-terminal registrations).
type registration[T any] struct {
	st *state[T]
	id uint64
}

// Unregister is idempotent and safe after the slot became terminal.
func (r *registration[T]) Unregister() {
	if r == nil || r.st == nil {
		return
	}
	r.st.mu.Lock()
	delete(r.st.listeners, r.id)
	r.st.mu.Unlock()
}

// CancelRegistration is a scoped cancel-callback registration; see
// Future.OnCancel.
type CancelRegistration struct {
	once       sync.Once
	unregister func()
}

// Unregister removes the callback. It is idempotent and safe to defer on
// every exit path, including after the callback has fired.
func (r *CancelRegistration) Unregister() {
	r.once.Do(func() {
		if r.unregister != nil {
			r.unregister()
		}
	})
}

// callbackKey is the identity used by removeCallbacks: the function
// value's code pointer. Distinct closures over the same function literal
// share a key.
func callbackKey[T any](cb func(*Future[T])) uintptr {
	return reflect.ValueOf(cb).Pointer()
}

func drainTokens(m map[uint64]func()) []func() {
	if len(m) == 0 {
		return nil
	}
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]func(), len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// noCopy may be added to structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
