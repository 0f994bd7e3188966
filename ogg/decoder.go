package ogg

import (
	"errors"
	"fmt"
	"io"
)

type PageDecoder struct {
	r      io.Reader
	offset int64
}

func NewPageDecoder(r io.Reader) *PageDecoder {
	return &PageDecoder{r: r}
}

// Offset returns the number of bytes consumed so far.
func (d *PageDecoder) Offset() int64 {
	return d.offset
}

// NextPage reads the next page and verifies its checksum. It returns io.EOF
// only when the source ends cleanly on a page boundary.
func (d *PageDecoder) NextPage() (*Page, error) {
	var header [HeaderSize]byte
	n, err := io.ReadFull(d.r, header[:])
	d.offset += int64(n)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %d of %d header bytes at offset %d", ErrTruncatedPage, n, HeaderSize, d.offset-int64(n))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page header: %w", err)
	}

	page, err := parseHeader(header[:])
	if err != nil {
		return nil, err
	}

	page.SegmentSizes = make([]uint8, header[26])
	if err := d.readFull(page.SegmentSizes, "segment table"); err != nil {
		return nil, err
	}

	payloadSize := 0
	for _, segmentSize := range page.SegmentSizes {
		payloadSize += int(segmentSize)
	}
	page.Payload = make([]byte, payloadSize)
	if err := d.readFull(page.Payload, "payload"); err != nil {
		return nil, err
	}

	if computed := page.ComputeChecksum(); computed != page.Checksum {
		return nil, pageError(page, ErrBadChecksum, "page_checksum", "stored %#08x, computed %#08x", page.Checksum, computed)
	}

	return page, nil
}

func (d *PageDecoder) readFull(b []byte, what string) error {
	n, err := io.ReadFull(d.r, b)
	d.offset += int64(n)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s cut at %d of %d bytes", ErrTruncatedPage, what, n, len(b))
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", what, err)
	}
	return nil
}

func parseHeader(b []byte) (*Page, error) {
	if string(b[:4]) != capturePattern {
		return nil, fmt.Errorf("%w: capture pattern %q", ErrInvalidPage, b[:4])
	}
	if b[4] != 0 {
		return nil, fmt.Errorf("%w: stream structure version %d", ErrInvalidPage, b[4])
	}

	return &Page{
		Version:         b[4],
		HeaderType:      HeaderType(b[5]),
		GranulePosition: int64(endian.Uint64(b[6:14])),
		Serial:          endian.Uint32(b[14:18]),
		Sequence:        endian.Uint32(b[18:22]),
		Checksum:        endian.Uint32(b[22:26]),
	}, nil
}

// ParsePage parses one page from the start of data and returns it with the
// number of bytes it occupies. The checksum is kept as stored and is not
// verified; see ChecksumValid.
func ParsePage(data []byte) (*Page, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedPage, len(data), HeaderSize)
	}
	page, err := parseHeader(data[:HeaderSize])
	if err != nil {
		return nil, 0, err
	}

	segments := int(data[26])
	if len(data) < HeaderSize+segments {
		return nil, 0, fmt.Errorf("%w: segment table needs %d bytes", ErrTruncatedPage, segments)
	}
	page.SegmentSizes = append([]uint8(nil), data[HeaderSize:HeaderSize+segments]...)

	size := HeaderSize + segments
	for _, v := range page.SegmentSizes {
		size += int(v)
	}
	if len(data) < size {
		return nil, 0, fmt.Errorf("%w: page needs %d bytes, have %d", ErrTruncatedPage, size, len(data))
	}
	page.Payload = append([]byte{}, data[HeaderSize+segments:size]...)

	return page, size, nil
}

func (p *Page) UnmarshalBinary(data []byte) error {
	page, n, err := ParsePage(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("%w: %d trailing bytes after page", ErrInvalidPage, len(data)-n)
	}
	*p = *page
	return nil
}
