package discovery

import (
	"errors"
	"fmt"
	"go/token"
)

var (
	// ErrNoGoFiles is returned when a directory holds no buildable Go files.
	ErrNoGoFiles = errors.New("no Go files")

	// ErrNoModule is returned when no go.mod encloses a scanned directory.
	ErrNoModule = errors.New("no go.mod found")
)

// ValidationError reports a marked type that generated code could not
// construct or register.
type ValidationError struct {
	// Pos is the location of the offending declaration
	Pos token.Position

	// Type is the qualified name of the marked type
	Type string

	// Reason describes what is wrong
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: cardwire: type %s: %s", e.Pos, e.Type, e.Reason)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
