package script

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates a script file could not be opened.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("script '%s' not found: %v", e.Name, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// RecursionError indicates a script is already being executed further up
// the chain.
type RecursionError struct {
	Name  string
	Chain []string
}

func (e *RecursionError) Error() string {
	chain := strings.Join(e.Chain, " -> ")
	return fmt.Sprintf("script '%s' is already running (%s -> %s)", e.Name, chain, e.Name)
}

// IsScriptError reports whether err should abort the script chain.
func IsScriptError(err error) bool {
	var nf *NotFoundError
	var re *RecursionError
	return errors.As(err, &nf) || errors.As(err, &re)
}
