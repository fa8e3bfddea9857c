// Package eventloop provides a minimal cooperative event loop: a single
// goroutine that drains a task queue, plus loop-owned single-assignment
// awaitables. It implements the host-loop contract consumed by the
// bridge package.
//
// All callback invocation happens on the loop goroutine. Code on other
// goroutines must marshal work through CallSoonThreadsafe instead of
// touching loop-owned state directly.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"

	"github.com/saltfishpr/handoff/routine"
)

var (
	// ErrClosed reports scheduling against a loop that has shut down.
	ErrClosed = errors.New("eventloop: closed")
	// ErrRunning reports a second concurrent Run call.
	ErrRunning = errors.New("eventloop: already running")
)

const (
	stateInitialized int32 = iota
	stateRunning
	stateStopped
)

const taskQueueSize = 256

// Loop is a single-goroutine cooperative scheduler. Create it with New,
// drive it with Run, and stop it with Close (or by cancelling the Run
// context).
type Loop struct {
	logger *logiface.Logger[logiface.Event]

	tasks chan func()
	quit  chan struct{}

	state     atomic.Int32
	closeOnce sync.Once
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report panicking tasks and
// scheduling failures. The default is no logging.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// New returns a Loop ready to Run. Tasks may be scheduled before Run is
// called; they are held until the loop starts.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks: make(chan func(), taskQueueSize),
		quit:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes tasks on the calling goroutine until ctx is done or the
// loop is closed. It returns ctx.Err in the former case and nil in the
// latter. Run may be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(stateInitialized, stateRunning) {
		if l.state.Load() == stateRunning {
			return ErrRunning
		}
		return ErrClosed
	}
	defer l.state.Store(stateStopped)

	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.quit:
			l.drain()
			return nil
		case fn := <-l.tasks:
			l.runTask(fn)
		}
	}
}

// drain runs tasks that were accepted before Close won the race against
// CallSoonThreadsafe, so accepted work is not silently dropped.
func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.tasks:
			l.runTask(fn)
		default:
			return
		}
	}
}

func (l *Loop) runTask(fn func()) {
	routine.RunSafe(fn, func(r interface{}) {
		l.logger.Err().
			Err(routine.NewRecovered(3, r).AsError()).
			Log("eventloop: task panicked")
	})
}

// CallSoonThreadsafe schedules fn to run on the loop goroutine. It is
// the only operation that may be called from other goroutines. It blocks
// while the task queue is full and fails with ErrClosed after shutdown.
func (l *Loop) CallSoonThreadsafe(fn func()) error {
	select {
	case <-l.quit:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrClosed
	}
}

// Close stops the loop. Already-accepted tasks still run; later
// scheduling fails with ErrClosed. Close is idempotent and safe from any
// goroutine, including loop tasks.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.quit)
	})
}
