package routine

// RunSafe runs fn, recovering from any panic. The recovered value is
// passed to each cleanup in order; the panic does not propagate.
func RunSafe(fn func(), cleanup ...func(r interface{})) {
	defer Recover(cleanup...)

	fn()
}

// GoSafe runs fn on a new goroutine via RunSafe.
func GoSafe(fn func(), cleanup ...func(r interface{})) {
	go RunSafe(fn, cleanup...)
}
