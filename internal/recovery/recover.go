// Package recovery converts panics raised while decoding untrusted input or
// calling caller-supplied collaborators into errors.
package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError reports a recovered panic.
type PanicError struct {
	Operation string
	Value     any
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Operation, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// RecoverToError wraps a function call with panic recovery.
// If the function panics, the panic is logged and returned as a *PanicError.
//
// Example:
//
//	err := recovery.RecoverToError(logger, "decode plan", func() error {
//	    return decode(buf)
//	})
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(logger, operation, r)
		}
	}()

	return fn()
}

// RecoverToValue wraps a function that returns a value and error.
// If the function panics, returns zero value and a *PanicError.
//
// Example:
//
//	plan, err := recovery.RecoverToValue(logger, "decode plan", func() (logical.Plan, error) {
//	    return wire.FromPlanNode(ctx, node, sess, codec)
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = recovered(logger, operation, r)
		}
	}()

	return fn()
}

func recovered(logger *slog.Logger, operation string, r any) error {
	stack := debug.Stack()
	if logger != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(stack),
		)
	}
	return &PanicError{Operation: operation, Value: r, Stack: stack}
}
