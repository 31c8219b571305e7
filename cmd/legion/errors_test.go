package main

import (
	"errors"
	"testing"
)

func TestExitErrorImplementsError(t *testing.T) {
	err := &ExitError{Code: 1, Message: "something failed"}

	got := err.Error()
	want := "something failed"

	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestExitErrorUnwrapWithErrorsAs(t *testing.T) {
	var wrapped error = &ExitError{Code: 4, Message: "server not running"}

	var exitErr *ExitError
	if !errors.As(wrapped, &exitErr) {
		t.Fatal("errors.As did not match ExitError")
	}

	if exitErr.Code != 4 {
		t.Errorf("Code = %d, want 4", exitErr.Code)
	}
}

func TestErrServerNotRunning(t *testing.T) {
	err := errServerNotRunning()

	if err.Code != exitServerNotRunning {
		t.Errorf("Code = %d, want %d", err.Code, exitServerNotRunning)
	}
	if err.Message == "" {
		t.Error("Message should not be empty")
	}
}

func TestErrInvalidConfig(t *testing.T) {
	err := errInvalidConfig(errors.New("bad port"))

	if err.Code != exitConfigError {
		t.Errorf("Code = %d, want %d", err.Code, exitConfigError)
	}
	if err.Message != "bad port" {
		t.Errorf("Message = %q, want %q", err.Message, "bad port")
	}
}

func TestErrScript(t *testing.T) {
	err := errScript("deploy.txt", errors.New("no such file"))

	if err.Code != exitScriptError {
		t.Errorf("Code = %d, want %d", err.Code, exitScriptError)
	}
	want := "Cannot execute script 'deploy.txt': no such file"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestSilentExitErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		code int
	}{
		{"invalid address", errInvalidAddress(), exitConfigError},
		{"server unreachable", errServerUnreachable(), exitServerUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.code)
			}
			if tt.err.Message != "" {
				t.Errorf("Message = %q, want empty", tt.err.Message)
			}
		})
	}
}
