package bootstrap

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyBootstrapped is returned by a second Run.
	ErrAlreadyBootstrapped = errors.New("bootstrap: registrars already invoked")

	// ErrNoStrategy is returned when neither an aggregator nor a fallback
	// table is configured.
	ErrNoStrategy = errors.New("bootstrap: no aggregator or fallback table configured")

	// ErrMissingEntryPoint marks a table entry without a callable function.
	ErrMissingEntryPoint = errors.New("bootstrap: registrar has no entry point")
)

// InvokeError reports a registrar that panicked while running.
type InvokeError struct {
	Name  string
	Cause error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("bootstrap: registrar %s failed: %v", e.Name, e.Cause)
}

func (e *InvokeError) Unwrap() error {
	return e.Cause
}
