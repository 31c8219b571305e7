// Package script manages the chain of nested script files a client session
// reads commands from.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/d2verb/legion/internal/pathutil"
)

// LineReader supplies one line of input at a time.
type LineReader interface {
	ReadLine() (string, error)
}

type source struct {
	name   string // as given to execute
	path   string // canonical identifier
	reader *bufio.Reader
	closer io.Closer
}

// Stack reads lines from the innermost running script, falling back to the
// primary input once every script is exhausted.
type Stack struct {
	primary *bufio.Reader
	out     io.Writer
	baseDir string
	sources []*source
}

// New creates a stack over primary. Notices about finished scripts go to out.
// Relative script names are resolved from the working directory.
func New(primary io.Reader, out io.Writer) *Stack {
	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = "."
	}
	return &Stack{
		primary: bufio.NewReader(primary),
		out:     out,
		baseDir: baseDir,
	}
}

// SetBaseDir changes the directory relative script names are resolved from.
func (s *Stack) SetBaseDir(dir string) {
	s.baseDir = dir
}

// Push opens the named script and makes it the active input.
// A script that is already on the stack is rejected before it is opened.
func (s *Stack) Push(name string) error {
	path, err := pathutil.Canonical(name, s.baseDir)
	if err != nil {
		return &NotFoundError{Name: name, Err: err}
	}

	for _, src := range s.sources {
		if src.path == path {
			return &RecursionError{Name: name, Chain: s.Names()}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return &NotFoundError{Name: name, Err: err}
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return &NotFoundError{Name: name, Err: fmt.Errorf("%s is a directory", filepath.Base(path))}
	}

	s.sources = append(s.sources, &source{
		name:   name,
		path:   path,
		reader: bufio.NewReader(f),
		closer: f,
	})
	return nil
}

// ReadLine returns the next line without its line terminator. An exhausted
// script is closed and reading continues in its parent. io.EOF is returned
// only when the primary input is exhausted.
func (s *Stack) ReadLine() (string, error) {
	for len(s.sources) > 0 {
		top := s.sources[len(s.sources)-1]
		line, err := readLine(top.reader)
		if err == nil {
			return line, nil
		}

		s.pop()
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read script '%s': %w", top.name, err)
		}
		if len(s.sources) > 0 {
			fmt.Fprintf(s.out, "returning to script '%s'\n", s.sources[len(s.sources)-1].name)
		}
	}
	return readLine(s.primary)
}

// Active returns a reader bound to the innermost running script. Unlike
// ReadLine it never falls back to a parent: running out of lines is reported
// as io.ErrUnexpectedEOF. Without a running script it returns the stack.
func (s *Stack) Active() LineReader {
	if len(s.sources) == 0 {
		return s
	}
	return activeReader{src: s.sources[len(s.sources)-1]}
}

type activeReader struct {
	src *source
}

func (r activeReader) ReadLine() (string, error) {
	line, err := readLine(r.src.reader)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("script '%s' ended unexpectedly: %w", r.src.name, io.ErrUnexpectedEOF)
	}
	return line, err
}

// Unwind closes every running script and returns to the primary input.
func (s *Stack) Unwind() error {
	var result error
	for i := len(s.sources) - 1; i >= 0; i-- {
		if err := s.sources[i].closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close script '%s': %w", s.sources[i].name, err))
		}
	}
	s.sources = nil
	return result
}

// InScript reports whether a script is the active input.
func (s *Stack) InScript() bool {
	return len(s.sources) > 0
}

// Depth returns the number of running scripts.
func (s *Stack) Depth() int {
	return len(s.sources)
}

// Names returns the running scripts, outermost first.
func (s *Stack) Names() []string {
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.name
	}
	return names
}

func (s *Stack) pop() {
	top := s.sources[len(s.sources)-1]
	top.closer.Close()
	s.sources = s.sources[:len(s.sources)-1]
}

// readLine reads up to the next newline. A final line without a newline is
// returned as is; io.EOF is reported only when nothing is left.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
