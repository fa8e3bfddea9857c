package future

import (
	"github.com/joeycumines/logiface"

	"github.com/saltfishpr/handoff/future/executors"
)

// Executor abstracts how asynchronous producers are run.
//
// By default plain goroutines are used (executors.GoExecutor{}), which is
// the right choice for almost every workload. SetExecutor can substitute
// a pooled implementation to bound concurrency:
//
//	pool := executors.NewPoolExecutor(100)
//	future.SetExecutor(pool)
//
// Pooled executors can queue lazily-forced producers behind long-running
// ones; only override the default after measuring.
type Executor interface {
	Submit(func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(func())

func (e ExecutorFunc) Submit(f func()) {
	e(f)
}

var executor Executor = executors.GoExecutor{}

// SetExecutor replaces the package executor. It panics on nil and should
// be called once, before any futures are created.
func SetExecutor(e Executor) {
	if e == nil {
		panic("executor is nil")
	}
	executor = e
}

// logger is nil-safe; logging stays disabled until SetLogger is called.
var logger *logiface.Logger[logiface.Event]

// SetLogger sets the logger used to report suppressed done-callback
// panics. It should be called once, before any futures are created. A
// nil logger disables logging (the initial state).
func SetLogger(l *logiface.Logger[logiface.Event]) {
	logger = l
}
