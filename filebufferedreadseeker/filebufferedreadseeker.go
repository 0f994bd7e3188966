// Package filebufferedreadseeker makes a forward-only reader seekable by
// spooling what is read from it to a temporary file.
package filebufferedreadseeker

import (
	"fmt"
	"io"
	"os"
)

const tempPattern = "vorbisedit_*.tmp"

// Reader is an io.ReadSeeker over an io.Reader backed by a temporary file.
// Close removes the file.
type Reader struct {
	file   *os.File
	src    io.Reader
	size   int64
	offset int64
	srcErr error
}

var _ io.ReadSeekCloser = &Reader{}

// NewReader creates the spool file in the default temporary directory.
func NewReader(src io.Reader) (*Reader, error) {
	return NewReaderDir(src, "")
}

func NewReaderDir(src io.Reader, dir string) (*Reader, error) {
	file, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return nil, err
	}

	return &Reader{
		file: file,
		src:  src,
	}, nil
}

// Name returns the path of the spool file.
func (r *Reader) Name() string {
	return r.file.Name()
}

// Len returns the number of bytes spooled so far.
func (r *Reader) Len() int64 {
	return r.size
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.fill(r.offset + int64(len(p))); err != nil && err != io.EOF {
		return 0, err
	}
	if r.offset >= r.size {
		return 0, io.EOF
	}

	if left := r.size - r.offset; int64(len(p)) > left {
		p = p[:left]
	}
	n, err := r.file.ReadAt(p, r.offset)
	r.offset += int64(n)
	if err != nil && err != io.EOF {
		return n, err
	}

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
		target = r.size + offset
	default:
		return 0, fmt.Errorf("filebufferedreadseeker: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("filebufferedreadseeker: negative offset %d", target)
	}

	if err := r.fill(target); err != nil && err != io.EOF {
		return 0, err
	}
	r.offset = target

	return target, nil
}

// fill copies from the source until upto bytes are spooled.
func (r *Reader) fill(upto int64) error {
	if upto <= r.size {
		return nil
	}
	if r.srcErr != nil {
		return r.srcErr
	}

	n, err := io.CopyN(io.NewOffsetWriter(r.file, r.size), r.src, upto-r.size)
	r.size += n
	if err != nil {
		r.srcErr = err
	}
	return err
}

func (r *Reader) drain() error {
	if r.srcErr != nil {
		if r.srcErr == io.EOF {
			return nil
		}
		return r.srcErr
	}

	n, err := io.Copy(io.NewOffsetWriter(r.file, r.size), r.src)
	r.size += n
	if err != nil {
		r.srcErr = err
		return err
	}
	r.srcErr = io.EOF
	return nil
}

func (r *Reader) Close() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	return os.Remove(r.file.Name())
}
