package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/d2verb/legion/internal/marine"
	"github.com/d2verb/legion/internal/protocol"
)

// usageError reports an argument that does not match the handler's contract.
type usageError struct {
	usage string
}

func (e *usageError) Error() string {
	return fmt.Sprintf("usage: '%s'", e.usage)
}

func requireNone(arg protocol.Argument, usage string) error {
	if !arg.IsAbsent() {
		return &usageError{usage: usage}
	}
	return nil
}

func requireText(arg protocol.Argument, usage string) (string, error) {
	text := strings.TrimSpace(arg.Text)
	if arg.Kind != protocol.ArgText || text == "" {
		return "", &usageError{usage: usage}
	}
	return text, nil
}

func requireMarine(arg protocol.Argument, usage string) (*marine.SpaceMarine, error) {
	if arg.Kind != protocol.ArgMarine || arg.Marine == nil {
		return nil, &usageError{usage: usage}
	}
	if err := arg.Marine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid space marine: %w", err)
	}
	return arg.Marine, nil
}

func requireChapter(arg protocol.Argument, usage string) (*marine.Chapter, error) {
	if arg.Kind != protocol.ArgChapter || arg.Chapter == nil {
		return nil, &usageError{usage: usage}
	}
	if err := arg.Chapter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chapter: %w", err)
	}
	return arg.Chapter, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be an integer, got %q", s)
	}
	return id, nil
}
