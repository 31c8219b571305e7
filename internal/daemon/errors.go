package daemon

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates the listen address is unusable.
type ConfigurationError struct {
	Addr   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid listen address %q: %s", e.Addr, e.Reason)
}

// IsConfigurationError reports whether err indicates an unusable listen address.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
