// Package executors provides Executor implementations for running
// asynchronous producers (see future.SetExecutor).
package executors

// GoExecutor runs each task on its own goroutine. This is the package
// default.
type GoExecutor struct{}

func (GoExecutor) Submit(f func()) {
	go f()
}

// PoolExecutor bounds the number of concurrently running tasks. Submit
// blocks while maxWorkers tasks are in flight, which can delay the lazy
// start of a forced future; size the pool accordingly.
type PoolExecutor struct {
	sem chan struct{}
}

func NewPoolExecutor(maxWorkers int) *PoolExecutor {
	return &PoolExecutor{
		sem: make(chan struct{}, maxWorkers),
	}
}

func (p *PoolExecutor) Submit(f func()) {
	p.sem <- struct{}{}
	go func() {
		defer func() { <-p.sem }()
		f()
	}()
}
