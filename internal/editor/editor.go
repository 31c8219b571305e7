// Package editor opens config files and command scripts in the user's editor.
package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

var fallbackEditors = []string{"nvim", "vim", "vi", "nano"}

// Find returns the editor command to use.
// $VISUAL wins over $EDITOR; otherwise the first of nvim, vim, vi, nano on PATH.
func Find() (string, error) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if ed := strings.TrimSpace(os.Getenv(env)); ed != "" {
			return ed, nil
		}
	}
	for _, ed := range fallbackEditors {
		if path, err := exec.LookPath(ed); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no editor found: set $VISUAL or $EDITOR")
}

// Session runs an editor attached to a terminal.
type Session struct {
	Command string // may carry flags, e.g. "code --wait"
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewSession returns a session attached to the process's standard streams.
func NewSession(command string) *Session {
	return &Session{
		Command: command,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Edit opens filePath and waits for the editor to exit.
func (s *Session) Edit(ctx context.Context, filePath string) error {
	args := strings.Fields(s.Command)
	if len(args) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	args = append(args, filePath)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run editor %s: %w", s.Command, err)
	}
	return nil
}

// EnsureFile creates filePath with seed when it does not exist yet.
// It reports whether the file was created.
func EnsureFile(filePath string, seed []byte) (bool, error) {
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", filePath, err)
	}
	defer f.Close()

	if _, err := f.Write(seed); err != nil {
		return true, fmt.Errorf("write %s: %w", filePath, err)
	}
	return true, nil
}
