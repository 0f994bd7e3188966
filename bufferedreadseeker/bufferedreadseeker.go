// Package bufferedreadseeker makes a forward-only reader seekable by keeping
// everything read from it in memory.
package bufferedreadseeker

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/slices"
)

const defaultChunkSize = 32 * 1024

var errNegativeRead = errors.New("bufferedreadseeker: reader returned negative count from Read")

// Reader is an io.ReadSeeker over an io.Reader. Seeking forward reads the
// source up to the new offset; seeking to the end drains it.
type Reader struct {
	src    io.Reader
	buf    []byte
	chunk  int
	offset int64
	// srcErr is the first error returned by src, io.EOF once it is drained.
	srcErr error
}

var _ io.ReadSeeker = &Reader{}

func NewReader(src io.Reader) *Reader {
	return NewReaderSize(src, defaultChunkSize)
}

// NewReaderSize returns a Reader that pulls from src in chunks of n bytes.
func NewReaderSize(src io.Reader, n int) *Reader {
	if n <= 0 {
		n = defaultChunkSize
	}
	return &Reader{
		src:   src,
		buf:   make([]byte, 0, n),
		chunk: n,
	}
}

// Len returns the number of bytes buffered so far.
func (r *Reader) Len() int64 {
	return int64(len(r.buf))
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.offset >= r.Len() {
		if err := r.fill(r.offset + 1); err != nil {
			return 0, err
		}
	}

	n := copy(p, r.buf[r.offset:])
	r.offset += int64(n)

	return n, nil
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.offset + offset
	case io.SeekEnd:
		if err := r.drain(); err != nil {
			return 0, err
		}
		target = r.Len() + offset
	default:
		return 0, fmt.Errorf("bufferedreadseeker: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("bufferedreadseeker: negative offset %d", target)
	}

	// Reading past the end of the source is not an error until the next Read.
	if err := r.fill(target); err != nil && err != io.EOF {
		return 0, err
	}
	r.offset = target

	return target, nil
}

// fill reads from the source until upto bytes are buffered. It returns the
// source error if the source stops short.
func (r *Reader) fill(upto int64) error {
	for r.Len() < upto {
		if r.srcErr != nil {
			return r.srcErr
		}
		start := len(r.buf)
		r.buf = slices.Grow(r.buf, r.chunk)
		n, err := r.src.Read(r.buf[start:cap(r.buf)])
		if n < 0 {
			panic(errNegativeRead)
		}
		r.buf = r.buf[:start+n]
		if err != nil {
			r.srcErr = err
		}
	}
	return nil
}

func (r *Reader) drain() error {
	for r.srcErr == nil {
		if err := r.fill(r.Len() + int64(r.chunk)); err != nil && err != io.EOF {
			return err
		}
	}
	if r.srcErr != io.EOF {
		return r.srcErr
	}
	return nil
}
