// Package shell turns user input into requests for the legion server.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/d2verb/legion/internal/marine"
	"github.com/d2verb/legion/internal/protocol"
	"github.com/d2verb/legion/internal/script"
	"github.com/d2verb/legion/internal/ui"
)

// PS1 is the command prompt.
const PS1 = "$ "

// DefaultReadAttempts is how many consecutive input failures end the session.
const DefaultReadAttempts = 3

var (
	// ErrExit is returned when the user asked to leave the session.
	ErrExit = errors.New("exit requested")
	// ErrInputFailed is returned after too many consecutive input failures.
	ErrInputFailed = errors.New("exceeded the number of input attempts")
)

// argShape is what a command expects after its name.
type argShape int

const (
	shapeNone argShape = iota
	shapeText
	shapeMarine
	shapeChapter
	shapeTextAndMarine
)

type commandSpec struct {
	shape argShape
	usage string // argument placeholder shown in usage messages
}

// commands is the surface accepted from the user. server_exit is the only
// command that shuts the server down.
var commands = map[string]commandSpec{
	protocol.CmdAdd:                   {shapeMarine, "{element}"},
	protocol.CmdAddIfMax:              {shapeMarine, "{element}"},
	protocol.CmdRemoveGreater:         {shapeMarine, "{element}"},
	protocol.CmdRemoveByID:            {shapeText, "<id>"},
	protocol.CmdRemoveAt:              {shapeText, "<position>"},
	protocol.CmdUpdate:                {shapeTextAndMarine, "<id> {element}"},
	protocol.CmdFilterByChapter:       {shapeChapter, "{chapter}"},
	protocol.CmdFilterLessThanHealth:  {shapeText, "<health>"},
	protocol.CmdShow:                  {shapeNone, ""},
	protocol.CmdInfo:                  {shapeNone, ""},
	protocol.CmdHelp:                  {shapeNone, ""},
	protocol.CmdPrintUniqueHeartCount: {shapeNone, ""},
	protocol.CmdSave:                  {shapeNone, ""},
	protocol.CmdHistory:               {shapeNone, ""},
	protocol.CmdServerExit:            {shapeNone, ""},
	protocol.CmdExecute:               {shapeText, "<file_name>"},
	protocol.CmdExit:                  {shapeNone, ""},
}

// IsCommand reports whether name is part of the command surface.
func IsCommand(name string) bool {
	_, ok := commands[name]
	return ok
}

// Shell reads commands from a script stack and builds requests.
type Shell struct {
	input        *script.Stack
	out          io.Writer
	interactive  bool
	readAttempts int
}

// New creates a shell. Prompts are printed only when interactive is true.
func New(input *script.Stack, out io.Writer, interactive bool) *Shell {
	return &Shell{
		input:        input,
		out:          out,
		interactive:  interactive,
		readAttempts: DefaultReadAttempts,
	}
}

// InScript reports whether commands are currently read from a script.
func (s *Shell) InScript() bool {
	return s.input.InScript()
}

// Next returns the next request to send. prev is the result of the previous
// exchange; an ERROR or SERVER_EXIT while a script runs aborts the whole
// script chain, in which case an empty request is returned.
//
// Next returns ErrExit when the user typed exit, io.EOF when the primary
// input is exhausted and ErrInputFailed after repeated read failures.
func (s *Shell) Next(prev protocol.Result) (*protocol.Request, error) {
	if s.input.InScript() && (prev == protocol.ResultError || prev == protocol.ResultServerExit) {
		s.abort()
		return &protocol.Request{}, nil
	}

	failures := 0
	for {
		if !s.input.InScript() && s.interactive {
			fmt.Fprint(s.out, PS1)
		}

		line, err := s.input.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			if script.IsScriptError(err) || s.input.InScript() {
				ui.FprintError(s.out, err.Error())
				s.abort()
				return &protocol.Request{}, nil
			}
			failures++
			ui.FprintError(s.out, fmt.Sprintf("an error occurred while entering the command: %v", err))
			if failures >= s.readAttempts {
				ui.FprintError(s.out, ErrInputFailed.Error())
				return nil, ErrInputFailed
			}
			continue
		}

		fromScript := s.input.InScript()
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if fromScript {
			fmt.Fprintf(s.out, "%s%s\n", PS1, line)
		}

		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		req, err := s.process(name, arg)
		switch {
		case err == nil && req == nil:
			// execute pushed a script; keep reading from it.
			continue
		case err == nil:
			return req, nil
		case errors.Is(err, ErrExit), errors.Is(err, io.EOF):
			return nil, err
		case fromScript || s.input.InScript():
			s.abort()
			return &protocol.Request{}, nil
		}
		// Interactive usage mistakes are reported by process; ask again.
	}
}

// process validates one command line and builds its request. A nil request
// with a nil error means the input source changed and reading continues.
func (s *Shell) process(name, arg string) (*protocol.Request, error) {
	spec, ok := commands[name]
	if !ok {
		fmt.Fprintf(s.out, "command '%s' not found, type 'help' for the list of commands\n", name)
		return nil, errUsage
	}

	if err := checkShape(spec.shape, arg); err != nil {
		s.printUsage(name, spec.usage)
		return nil, err
	}

	switch name {
	case protocol.CmdExit:
		return nil, ErrExit
	case protocol.CmdExecute:
		if err := s.input.Push(arg); err != nil {
			ui.FprintError(s.out, err.Error())
			return nil, err
		}
		fmt.Fprintf(s.out, "executing script '%s'\n", arg)
		return nil, nil
	}

	switch spec.shape {
	case shapeMarine:
		m, err := s.builder().Marine()
		if err != nil {
			return nil, s.buildFailed(err)
		}
		return protocol.NewRequest(name, protocol.MarineArg(m)), nil
	case shapeTextAndMarine:
		m, err := s.builder().Marine()
		if err != nil {
			return nil, s.buildFailed(err)
		}
		a := protocol.MarineArg(m)
		a.Text = arg
		return protocol.NewRequest(name, a), nil
	case shapeChapter:
		c, err := s.builder().Chapter()
		if err != nil {
			return nil, s.buildFailed(err)
		}
		return protocol.NewRequest(name, protocol.ChapterArg(c)), nil
	case shapeText:
		return protocol.NewRequest(name, protocol.TextArg(arg)), nil
	default:
		return protocol.NewRequest(name, protocol.Argument{}), nil
	}
}

var errUsage = errors.New("invalid command usage")

func checkShape(shape argShape, arg string) error {
	switch shape {
	case shapeText, shapeTextAndMarine:
		if arg == "" {
			return errUsage
		}
	default:
		if arg != "" {
			return errUsage
		}
	}
	return nil
}

func (s *Shell) printUsage(name, usage string) {
	if usage != "" {
		name += " " + usage
	}
	fmt.Fprintf(s.out, "usage: '%s'\n", name)
}

// builder reads payload fields from the active script only, or from the
// primary input when no script runs.
func (s *Shell) builder() *marine.Builder {
	return marine.NewBuilder(s.input.Active(), s.out, s.input.InScript())
}

// buildFailed reports a payload that could not be read. End of input is
// passed through unchanged.
func (s *Shell) buildFailed(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	ui.FprintError(s.out, err.Error())
	return err
}

func (s *Shell) abort() {
	if err := s.input.Unwind(); err != nil {
		ui.FprintWarning(s.out, err.Error())
	}
	ui.FprintError(s.out, "script execution aborted")
}
