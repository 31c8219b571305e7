package marine

import (
	"errors"
	"fmt"
)

// ErrIncorrectScriptInput is returned by a Builder in script mode when a
// field value read from the script is invalid.
var ErrIncorrectScriptInput = errors.New("incorrect input in script")

// ValidationError indicates a record field holds an invalid value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidationError reports whether err indicates an invalid field.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
