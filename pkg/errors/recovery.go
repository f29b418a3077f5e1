package errors

import (
	"fmt"
	"runtime/debug"
)

const maxStackBytes = 4096

// RecoverPanic converts a recovered panic value into a fatal internal error.
// A panicking error stays reachable through errors.Is and errors.As.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}

	var cause error
	if err, ok := r.(error); ok {
		cause = fmt.Errorf("panic: %w", err)
	} else {
		cause = fmt.Errorf("panic: %v", r)
	}

	stack := debug.Stack()
	if len(stack) > maxStackBytes {
		stack = stack[:maxStackBytes]
	}

	return ErrInternal.
		WithCause(cause).
		WithDetail("panic", true).
		WithDetail("stack_trace", string(stack)).
		AsFatal()
}
