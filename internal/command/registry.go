// Package command maps command names to the handlers that execute them
// against the collection.
package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/d2verb/legion/internal/protocol"
)

// Outcome is the result class of a handler execution.
type Outcome int

const (
	Success Outcome = iota
	Failure
	// Exit ends the session after the response is sent.
	Exit
)

// Result is the value a handler returns: its outcome and the text it produced.
type Result struct {
	Outcome Outcome
	Text    string
}

func ok(format string, args ...any) Result {
	return Result{Outcome: Success, Text: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{Outcome: Failure, Text: fmt.Sprintf(format, args...)}
}

// Handler executes one named command.
type Handler interface {
	Name() string
	Usage() string
	Description() string
	Execute(ctx context.Context, arg protocol.Argument) Result
}

// Func adapts a function to the Handler interface.
type Func struct {
	name        string
	usage       string
	description string
	fn          func(ctx context.Context, arg protocol.Argument) Result
}

// NewFunc creates a handler from a function.
func NewFunc(name, usage, description string, fn func(ctx context.Context, arg protocol.Argument) Result) *Func {
	return &Func{name: name, usage: usage, description: description, fn: fn}
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Usage() string       { return f.usage }
func (f *Func) Description() string { return f.description }

func (f *Func) Execute(ctx context.Context, arg protocol.Argument) Result {
	return f.fn(ctx, arg)
}

// Registry is a name to handler lookup table. It never mutates state itself.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h. Registering the same name twice is an error.
func (r *Registry) Register(h Handler) error {
	if _, exists := r.handlers[h.Name()]; exists {
		return fmt.Errorf("command %q already registered", h.Name())
	}
	r.handlers[h.Name()] = h
	return nil
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Handlers returns every handler sorted by name.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b Handler) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// Dispatch runs the handler registered under name.
func (r *Registry) Dispatch(ctx context.Context, name string, arg protocol.Argument) Result {
	h, ok := r.handlers[name]
	if !ok {
		return fail("command '%s' not found, type 'help' for the list of commands", name)
	}
	return h.Execute(ctx, arg)
}
