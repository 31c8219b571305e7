// Package storage persists the marine collection between server runs.
package storage

import (
	"context"
	"fmt"

	"github.com/d2verb/legion/internal/marine"
)

// Driver names
const (
	DriverYAML = "yaml"
	DriverBolt = "bolt"
)

// Persister loads the collection at startup and saves it at shutdown.
type Persister interface {
	Load(ctx context.Context) ([]*marine.SpaceMarine, error)
	Save(ctx context.Context, records []*marine.SpaceMarine) error
	Close() error
}

// UnknownDriverError indicates the configured storage driver does not exist.
type UnknownDriverError struct {
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown storage driver %q (want %q or %q)", e.Driver, DriverYAML, DriverBolt)
}

// Open returns the persister for the named driver.
func Open(driver, path string) (Persister, error) {
	switch driver {
	case DriverYAML, "":
		return NewYAMLFile(path), nil
	case DriverBolt:
		return OpenBolt(path)
	default:
		return nil, &UnknownDriverError{Driver: driver}
	}
}
