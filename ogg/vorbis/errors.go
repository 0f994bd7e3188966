package vorbis

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHeader reports a wrong packet type, magic, version, framing
	// bit or reserved field.
	ErrInvalidHeader = errors.New("vorbis: invalid header")

	// ErrOutOfRange reports an index that references a codebook, floor,
	// residue, mapping or channel that does not exist.
	ErrOutOfRange = errors.New("vorbis: index out of range")

	// ErrEndOfPacket reports a read past the end of the packet.
	ErrEndOfPacket = errors.New("vorbis: end of packet")

	// ErrCodebook reports a malformed codeword length table or lookup table.
	ErrCodebook = errors.New("vorbis: malformed codebook")
)

// FieldError identifies the header field that failed to decode.
type FieldError struct {
	Header string
	Field  string
	Value  uint64
	Want   string
	Err    error
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%v: %s header: %s", e.Err, e.Header, e.Field)
	if e.Want != "" {
		msg += fmt.Sprintf(": got %d, want %s", e.Value, e.Want)
	}
	return msg
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
