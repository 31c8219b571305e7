package protocol

import (
	"errors"
	"fmt"
)

var errEmptyRequest = errors.New("empty request")

// ProtocolError indicates a message could not be encoded or decoded.
// The exchange it occurred in is abandoned and the connection treated as broken.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError reports whether err indicates a malformed message.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsEncodeError reports whether err is a message that could not be encoded.
// Nothing was written, so the stream is still usable.
func IsEncodeError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Op == "encode"
}

// invalidValueError indicates an enumerated field holds an unknown value.
type invalidValueError struct {
	what  string
	value string
}

func (e *invalidValueError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.what, e.value)
}

// MismatchError indicates a response does not belong to the in-flight request.
func MismatchError(want, got string) error {
	return &ProtocolError{Op: "correlate", Err: fmt.Errorf("response id %q does not match request id %q", got, want)}
}
