package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// RecoverAsError recovers from a panic and stores it in *errPtr as a
// *PanicError. It must be deferred directly:
//
//	func answer() (err error) {
//	    defer utils.RecoverAsError(&err, logger)
//	    ...
//	}
func RecoverAsError(errPtr *error, logger *slog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	stack := string(debug.Stack())
	*errPtr = &PanicError{Value: r, StackTrace: stack}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("Recovered from panic", "panic", r, "stack", stack)
}

// SafeGoWithResult runs fn in a goroutine and delivers its error, or the
// recovered panic, on the returned channel. The channel is closed when fn
// returns.
func SafeGoWithResult(fn func() error, logger *slog.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		var err error
		func() {
			defer RecoverAsError(&err, logger)
			err = fn()
		}()
		if err != nil {
			errCh <- err
		}
	}()
	return errCh
}
