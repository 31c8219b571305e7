package protocol

import (
	"encoding/json"
	"errors"
	"io"
)

// Codec encodes and decodes messages over a byte stream.
// Each message occupies exactly one frame; Decode never returns a partial message.
type Codec interface {
	// Encode writes one message frame.
	Encode(msg any) error

	// Decode reads one message frame into msg.
	Decode(msg any) error

	// Close closes the underlying stream.
	Close() error
}

// JSONCodec implements Codec using newline-delimited JSON.
type JSONCodec struct {
	rw      io.ReadWriteCloser
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewCodec creates a JSON codec over rw.
func NewCodec(rw io.ReadWriteCloser) *JSONCodec {
	return &JSONCodec{
		rw:      rw,
		encoder: json.NewEncoder(rw),
		decoder: json.NewDecoder(rw),
	}
}

// Encode writes msg as a single JSON line. Empty requests are refused.
func (c *JSONCodec) Encode(msg any) error {
	if req, ok := msg.(*Request); ok && req.IsEmpty() {
		return &ProtocolError{Op: "encode", Err: errEmptyRequest}
	}
	if err := c.encoder.Encode(msg); err != nil {
		var ue *json.UnsupportedValueError
		var te *json.UnsupportedTypeError
		if errors.As(err, &ue) || errors.As(err, &te) {
			return &ProtocolError{Op: "encode", Err: err}
		}
		return err
	}
	return nil
}

// Decode reads the next JSON line into msg.
// Transport errors are returned as-is; malformed frames become *ProtocolError.
func (c *JSONCodec) Decode(msg any) error {
	if err := c.decoder.Decode(msg); err != nil {
		if isFrameError(err) {
			return &ProtocolError{Op: "decode", Err: err}
		}
		return err
	}
	if resp, ok := msg.(*Response); ok && resp.Result == "" {
		return &ProtocolError{Op: "decode", Err: &invalidValueError{what: "result", value: ""}}
	}
	return nil
}

// Close closes the underlying stream.
func (c *JSONCodec) Close() error {
	return c.rw.Close()
}

func isFrameError(err error) bool {
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	var ie *invalidValueError
	return errors.As(err, &se) || errors.As(err, &te) || errors.As(err, &ie)
}
