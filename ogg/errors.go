package ogg

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage reports a malformed page: bad capture pattern,
	// unsupported version or a segment table that disagrees with the payload.
	ErrInvalidPage = errors.New("ogg: invalid page structure")

	// ErrBadChecksum reports a page whose stored CRC does not match its contents.
	ErrBadChecksum = errors.New("ogg: checksum mismatch")

	// ErrTruncatedPage reports a stream that ended in the middle of a page.
	ErrTruncatedPage = errors.New("ogg: truncated page")

	// ErrTruncatedPacket reports a packet whose last lacing value is 255
	// with no page to continue it.
	ErrTruncatedPacket = errors.New("ogg: truncated packet")

	// ErrSequence reports page sequence numbers that do not increase.
	ErrSequence = errors.New("ogg: non-monotonic page sequence")

	// ErrContinuation reports a continuation flag that does not match the
	// open packet state.
	ErrContinuation = errors.New("ogg: unexpected continuation state")

	// ErrSegmentRange reports a segment index outside the page.
	ErrSegmentRange = errors.New("ogg: segment index out of range")
)

// PageError carries the page that caused a container-level failure.
type PageError struct {
	Serial   uint32
	Sequence uint32
	Field    string
	Detail   string
	Err      error
}

func (e *PageError) Error() string {
	msg := fmt.Sprintf("%v: page %d of stream %#08x", e.Err, e.Sequence, e.Serial)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *PageError) Unwrap() error {
	return e.Err
}

func pageError(p *Page, err error, field, format string, args ...interface{}) error {
	return &PageError{
		Serial:   p.Serial,
		Sequence: p.Sequence,
		Field:    field,
		Detail:   fmt.Sprintf(format, args...),
		Err:      err,
	}
}
