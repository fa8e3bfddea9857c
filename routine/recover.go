package routine

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// Recover is the deferred half of RunSafe. If the calling goroutine is
// panicking, the recovered value is handed to each cleanup in order.
func Recover(cleanups ...func(r interface{})) {
	if r := recover(); r != nil {
		for _, cleanup := range cleanups {
			cleanup(r)
		}
	}
}

// Recovered captures a panic value together with the call stack at the
// recovery site.
type Recovered struct {
	Value   interface{}
	Callers []uintptr
}

// NewRecovered captures the current stack, skipping skip frames above the
// caller of NewRecovered.
func NewRecovered(skip int, value interface{}) *Recovered {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	return &Recovered{
		Value:   value,
		Callers: callers[:n],
	}
}

// AsError returns the panic as an error, or nil for a nil receiver.
func (p *Recovered) AsError() error {
	if p == nil {
		return nil
	}
	return &RecoveredError{p}
}

// RecoveredError is an error wrapping a recovered panic. It implements
// the stack-trace contract of github.com/pkg/errors, so %+v prints the
// frames of the panicking callback.
type RecoveredError struct {
	*Recovered
}

func (e *RecoveredError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StackTrace implements the pkg/errors stackTracer interface.
func (e *RecoveredError) StackTrace() errors.StackTrace {
	if e == nil {
		return nil
	}
	frames := make([]errors.Frame, len(e.Callers))
	for i, pc := range e.Callers {
		frames[i] = errors.Frame(pc)
	}
	return frames
}
