// Package protocol defines the request/response messages exchanged between
// the legion client and server.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/d2verb/legion/internal/marine"
	"github.com/google/uuid"
)

// Command names
const (
	CmdAdd                   = "add"
	CmdAddIfMax              = "add_if_max"
	CmdRemoveByID            = "remove_by_id"
	CmdRemoveAt              = "remove_at"
	CmdRemoveGreater         = "remove_greater"
	CmdUpdate                = "update"
	CmdFilterByChapter       = "filter_by_chapter"
	CmdFilterLessThanHealth  = "filter_less_than_health"
	CmdShow                  = "show"
	CmdInfo                  = "info"
	CmdHelp                  = "help"
	CmdPrintUniqueHeartCount = "print_unique_heart_count"
	CmdSave                  = "save"
	CmdHistory               = "history"
	CmdServerExit            = "server_exit"

	// Client-local commands, never sent to the server.
	CmdExecute = "execute"
	CmdExit    = "exit"
)

// Result is the outcome of a request.
type Result string

// Result values
const (
	ResultOK         Result = "ok"
	ResultError      Result = "error"
	ResultServerExit Result = "server_exit"
)

func (r *Result) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Result(s) {
	case ResultOK, ResultError, ResultServerExit:
		*r = Result(s)
		return nil
	default:
		return &invalidValueError{what: "result", value: s}
	}
}

// ArgumentKind tells which field of an Argument is populated.
type ArgumentKind string

// Argument kinds
const (
	ArgNone    ArgumentKind = ""
	ArgText    ArgumentKind = "text"
	ArgMarine  ArgumentKind = "marine"
	ArgChapter ArgumentKind = "chapter"
)

func (k *ArgumentKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch ArgumentKind(s) {
	case ArgNone, ArgText, ArgMarine, ArgChapter:
		*k = ArgumentKind(s)
		return nil
	default:
		return &invalidValueError{what: "argument kind", value: s}
	}
}

// Argument is the command argument: absent, raw text, or a structured payload.
// update is the one command that carries both Text (the ID) and Marine.
type Argument struct {
	Kind    ArgumentKind        `json:"kind,omitempty"`
	Text    string              `json:"text,omitempty"`
	Marine  *marine.SpaceMarine `json:"marine,omitempty"`
	Chapter *marine.Chapter     `json:"chapter,omitempty"`
}

// TextArg wraps raw text. Empty text is an absent argument.
func TextArg(s string) Argument {
	if s == "" {
		return Argument{}
	}
	return Argument{Kind: ArgText, Text: s}
}

// MarineArg wraps a record payload.
func MarineArg(m *marine.SpaceMarine) Argument {
	return Argument{Kind: ArgMarine, Marine: m}
}

// ChapterArg wraps a chapter payload.
func ChapterArg(c *marine.Chapter) Argument {
	return Argument{Kind: ArgChapter, Chapter: c}
}

// IsAbsent reports whether no argument was given.
func (a Argument) IsAbsent() bool {
	return a.Kind == ArgNone && a.Text == "" && a.Marine == nil && a.Chapter == nil
}

func (a Argument) String() string {
	switch a.Kind {
	case ArgText:
		return a.Text
	case ArgMarine:
		return "{marine}"
	case ArgChapter:
		return "{chapter}"
	default:
		return ""
	}
}

// Request represents a command request to the server.
type Request struct {
	ID       string   `json:"id"`
	Command  string   `json:"command"`
	Argument Argument `json:"argument"`
}

// NewRequest creates a new request with a fresh correlation ID.
func NewRequest(command string, arg Argument) *Request {
	return &Request{
		ID:       uuid.NewString(),
		Command:  command,
		Argument: arg,
	}
}

// IsEmpty reports whether the request carries neither a command nor an argument.
// Empty requests are never transmitted.
func (r *Request) IsEmpty() bool {
	return r.Command == "" && r.Argument.IsAbsent()
}

func (r *Request) String() string {
	if r.Argument.IsAbsent() {
		return r.Command
	}
	return fmt.Sprintf("%s %s", r.Command, r.Argument)
}

// Response represents a response from the server.
type Response struct {
	ID     string `json:"id"`
	Result Result `json:"result"`
	Body   string `json:"body,omitempty"`
}

// NewResponse creates a response correlated with the request ID.
func NewResponse(id string, result Result, body string) *Response {
	return &Response{
		ID:     id,
		Result: result,
		Body:   body,
	}
}
