package client

import (
	"errors"
	"fmt"
)

// ErrAttemptsExhausted is returned when the reconnection budget is used up.
var ErrAttemptsExhausted = errors.New("exceeded the number of connection attempts")

// ConfigurationError indicates the server address is unusable.
// It is never retried.
type ConfigurationError struct {
	Addr   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid server address %q: %s", e.Addr, e.Reason)
}

// ConnectionError wraps a failure to reach or talk to the server.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err indicates an unusable address.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsConnectionError reports whether err is a transport failure.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
