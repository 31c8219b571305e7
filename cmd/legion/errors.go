package main

import "fmt"

// Exit codes for CLI commands.
const (
	exitSuccess           = 0
	exitError             = 1
	exitConfigError       = 2
	exitServerUnreachable = 3
	exitServerNotRunning  = 4
	exitScriptError       = 5
)

// ExitError represents an error that should cause the process to exit with a specific code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func errInvalidConfig(err error) *ExitError {
	return &ExitError{
		Code:    exitConfigError,
		Message: err.Error(),
	}
}

// errInvalidAddress has no message: the session already reported the address.
func errInvalidAddress() *ExitError {
	return &ExitError{
		Code:    exitConfigError,
		Message: "",
	}
}

// errServerUnreachable has no message: the session already reported why.
func errServerUnreachable() *ExitError {
	return &ExitError{
		Code:    exitServerUnreachable,
		Message: "",
	}
}

func errServerNotRunning() *ExitError {
	return &ExitError{
		Code:    exitServerNotRunning,
		Message: "Server is not running.\nRun: legion start",
	}
}

func errScript(name string, err error) *ExitError {
	return &ExitError{
		Code:    exitScriptError,
		Message: fmt.Sprintf("Cannot execute script '%s': %v", name, err),
	}
}
