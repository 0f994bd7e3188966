package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

var endian = binary.LittleEndian

const (
	// HeaderSize is the size of the fixed part of a page header.
	HeaderSize = 27

	// MaxSegments is the largest number of lacing values a page can carry.
	MaxSegments = 255

	// MaxPayloadSize is the largest page payload.
	MaxPayloadSize = MaxSegments * 255

	// NoGranulePosition marks a page on which no packet completes.
	NoGranulePosition int64 = -1

	capturePattern = "OggS"
	checksumOffset = 22
)

type HeaderType uint8

const (
	ContinuationFlag HeaderType = 1 << iota
	BeginningOfStreamFlag
	EndOfStreamFlag
)

func (ht HeaderType) String() string {
	flags := make([]string, 0, 3)
	if ht&ContinuationFlag != 0 {
		flags = append(flags, "ContinuationFlag")
	}
	if ht&BeginningOfStreamFlag != 0 {
		flags = append(flags, "BeginningOfStreamFlag")
	}
	if ht&EndOfStreamFlag != 0 {
		flags = append(flags, "EndOfStreamFlag")
	}

	return strings.Join(flags, "|")
}

// Page is one physical Ogg page.
//
// A segment, as exposed by Segment, AddSegments, RemoveSegments and
// ReplaceSegments, is a laced fragment of a packet: the lacing values up to
// and including the first value below 255. When the last lacing value of
// the page is 255 the final fragment is open and continues on the next page.
type Page struct {
	Version         uint8
	HeaderType      HeaderType
	GranulePosition int64
	Serial          uint32
	Sequence        uint32
	Checksum        uint32

	SegmentSizes []uint8
	Payload      []byte
}

// NewPage builds a page holding the given closed packets and computes its
// checksum.
func NewPage(headerType HeaderType, granule int64, serial, sequence uint32, packets ...[]byte) (*Page, error) {
	page := &Page{
		HeaderType:      headerType,
		GranulePosition: granule,
		Serial:          serial,
		Sequence:        sequence,
	}
	if err := page.setFragments(packets, false); err != nil {
		return nil, err
	}
	page.UpdateChecksum()

	return page, nil
}

// Lace returns the segment table for a run of closed packets: 255 for every
// full segment and a final value below 255, which is 0 when a packet length
// is an exact multiple of 255.
func Lace(lengths ...int) []uint8 {
	table := make([]uint8, 0, len(lengths))
	for _, n := range lengths {
		for n >= 255 {
			table = append(table, 255)
			n -= 255
		}
		table = append(table, uint8(n))
	}

	return table
}

func (p *Page) IsContinuation() bool {
	return p.HeaderType&ContinuationFlag != 0
}

func (p *Page) IsBOS() bool {
	return p.HeaderType&BeginningOfStreamFlag != 0
}

func (p *Page) IsEOS() bool {
	return p.HeaderType&EndOfStreamFlag != 0
}

// Continues reports whether the last packet on the page continues on the
// next page.
func (p *Page) Continues() bool {
	n := len(p.SegmentSizes)
	return n > 0 && p.SegmentSizes[n-1] == 255
}

// HasGranulePosition reports whether a packet completes on the page.
func (p *Page) HasGranulePosition() bool {
	return p.GranulePosition != NoGranulePosition
}

// Size returns the serialized size of the page.
func (p *Page) Size() int {
	return HeaderSize + len(p.SegmentSizes) + len(p.Payload)
}

type fragment struct {
	offset int
	length int
	open   bool
}

func (p *Page) fragments() []fragment {
	var frags []fragment
	start, length := 0, 0
	for _, v := range p.SegmentSizes {
		length += int(v)
		if v < 255 {
			frags = append(frags, fragment{offset: start, length: length})
			start += length
			length = 0
		}
	}
	if p.Continues() {
		frags = append(frags, fragment{offset: start, length: length, open: true})
	}

	return frags
}

// Segments returns the number of packet fragments on the page.
func (p *Page) Segments() int {
	return len(p.fragments())
}

// Segment returns a copy of fragment i.
func (p *Page) Segment(i int) ([]byte, error) {
	frags := p.fragments()
	if i < 0 || i >= len(frags) {
		return nil, pageError(p, ErrSegmentRange, "segment", "index %d, page has %d", i, len(frags))
	}
	f := frags[i]
	if f.offset+f.length > len(p.Payload) {
		return nil, pageError(p, ErrInvalidPage, "segment table", "segment %d ends at %d, payload has %d bytes", i, f.offset+f.length, len(p.Payload))
	}

	return bytes.Clone(p.Payload[f.offset : f.offset+f.length]), nil
}

func (p *Page) segmentList() ([][]byte, error) {
	if err := p.ValidateSize(); err != nil {
		return nil, err
	}
	frags := p.fragments()
	segs := make([][]byte, len(frags))
	for i, f := range frags {
		segs[i] = p.Payload[f.offset : f.offset+f.length]
	}

	return segs, nil
}

// MapSegments returns a new page whose fragments are f applied to the
// fragments of p. An open last fragment must stay a multiple of 255 bytes.
func (p *Page) MapSegments(f func(i int, segment []byte) []byte) (*Page, error) {
	segs, err := p.segmentList()
	if err != nil {
		return nil, err
	}
	mapped := make([][]byte, len(segs))
	for i, seg := range segs {
		mapped[i] = f(i, bytes.Clone(seg))
	}

	return p.rebuild(mapped, p.Continues(), p.HeaderType)
}

// AddSegments inserts closed fragments before fragment index. index may be
// equal to the fragment count unless the page ends with an open fragment.
func (p *Page) AddSegments(index int, segments ...[]byte) (*Page, error) {
	segs, err := p.segmentList()
	if err != nil {
		return nil, err
	}
	if index < 0 || index > len(segs) {
		return nil, pageError(p, ErrSegmentRange, "segment", "insert index %d, page has %d", index, len(segs))
	}
	if index == len(segs) && p.Continues() {
		return nil, pageError(p, ErrSegmentRange, "segment", "cannot append after an open segment")
	}

	updated := make([][]byte, 0, len(segs)+len(segments))
	updated = append(updated, segs[:index]...)
	updated = append(updated, segments...)
	updated = append(updated, segs[index:]...)

	return p.rebuild(updated, p.Continues(), p.HeaderType)
}

// RemoveSegments removes n fragments starting at start. Removing the leading
// continuation fragment clears the continuation flag.
func (p *Page) RemoveSegments(start, n int) (*Page, error) {
	segs, err := p.segmentList()
	if err != nil {
		return nil, err
	}
	if err := p.checkRange(start, n, len(segs)); err != nil {
		return nil, err
	}

	updated := make([][]byte, 0, len(segs)-n)
	updated = append(updated, segs[:start]...)
	updated = append(updated, segs[start+n:]...)

	headerType := p.HeaderType
	if start == 0 {
		headerType &^= ContinuationFlag
	}
	open := p.Continues() && start+n < len(segs)

	return p.rebuild(updated, open, headerType)
}

// ReplaceSegments replaces n fragments starting at start with data as a
// single fragment. The fragment is closed unless the range ends with the
// page's open fragment; that one stays open, so data must then be a positive
// multiple of 255 bytes.
func (p *Page) ReplaceSegments(start, n int, data []byte) (*Page, error) {
	segs, err := p.segmentList()
	if err != nil {
		return nil, err
	}
	if err := p.checkRange(start, n, len(segs)); err != nil {
		return nil, err
	}

	updated := make([][]byte, 0, len(segs)-n+1)
	updated = append(updated, segs[:start]...)
	updated = append(updated, data)
	updated = append(updated, segs[start+n:]...)

	return p.rebuild(updated, p.Continues(), p.HeaderType)
}

// AddSegmentsRaw is AddSegments returning the serialized page.
func (p *Page) AddSegmentsRaw(index int, segments ...[]byte) ([]byte, error) {
	return raw(p.AddSegments(index, segments...))
}

// RemoveSegmentsRaw is RemoveSegments returning the serialized page.
func (p *Page) RemoveSegmentsRaw(start, n int) ([]byte, error) {
	return raw(p.RemoveSegments(start, n))
}

// ReplaceSegmentsRaw is ReplaceSegments returning the serialized page.
func (p *Page) ReplaceSegmentsRaw(start, n int, data []byte) ([]byte, error) {
	return raw(p.ReplaceSegments(start, n, data))
}

func raw(p *Page, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

func (p *Page) checkRange(start, n, count int) error {
	if n <= 0 {
		return pageError(p, ErrSegmentRange, "segment", "count must be positive, got %d", n)
	}
	if start < 0 || start >= count || start+n > count {
		return pageError(p, ErrSegmentRange, "segment", "range [%d, %d) outside %d segments", start, start+n, count)
	}
	return nil
}

func (p *Page) rebuild(segments [][]byte, open bool, headerType HeaderType) (*Page, error) {
	np := &Page{
		Version:         p.Version,
		HeaderType:      headerType,
		GranulePosition: p.GranulePosition,
		Serial:          p.Serial,
		Sequence:        p.Sequence,
	}
	if err := np.setFragments(segments, open); err != nil {
		return nil, err
	}
	np.UpdateChecksum()

	return np, nil
}

func (p *Page) setFragments(segments [][]byte, open bool) error {
	lengths := make([]int, len(segments))
	size := 0
	for i, seg := range segments {
		lengths[i] = len(seg)
		size += len(seg)
	}

	var table []uint8
	if open && len(segments) > 0 {
		last := lengths[len(lengths)-1]
		if last == 0 || last%255 != 0 {
			return pageError(p, ErrInvalidPage, "segment table", "open segment of %d bytes is not a positive multiple of 255", last)
		}
		table = Lace(lengths[:len(lengths)-1]...)
		for i := 0; i < last/255; i++ {
			table = append(table, 255)
		}
	} else {
		table = Lace(lengths...)
	}
	if len(table) > MaxSegments {
		return pageError(p, ErrInvalidPage, "page_segments", "%d lacing values, limit is %d", len(table), MaxSegments)
	}

	payload := make([]byte, 0, size)
	for _, seg := range segments {
		payload = append(payload, seg...)
	}
	p.SegmentSizes = table
	p.Payload = payload

	return nil
}

// ValidateSize checks that the segment table fits a page and adds up to the
// payload length. It does not look at the checksum.
func (p *Page) ValidateSize() error {
	if len(p.SegmentSizes) > MaxSegments {
		return pageError(p, ErrInvalidPage, "page_segments", "%d lacing values, limit is %d", len(p.SegmentSizes), MaxSegments)
	}
	total := 0
	for _, v := range p.SegmentSizes {
		total += int(v)
	}
	if total != len(p.Payload) {
		return pageError(p, ErrInvalidPage, "segment table", "lacing values add up to %d bytes, payload has %d", total, len(p.Payload))
	}
	return nil
}

func (p *Page) appendHeader(b []byte, checksum uint32) []byte {
	b = append(b, capturePattern...)
	b = append(b, p.Version, byte(p.HeaderType))
	b = endian.AppendUint64(b, uint64(p.GranulePosition))
	b = endian.AppendUint32(b, p.Serial)
	b = endian.AppendUint32(b, p.Sequence)
	b = endian.AppendUint32(b, checksum)
	b = append(b, uint8(len(p.SegmentSizes)))
	return append(b, p.SegmentSizes...)
}

// ComputeChecksum returns the CRC of the page serialized with a zero
// checksum field.
func (p *Page) ComputeChecksum() uint32 {
	header := p.appendHeader(make([]byte, 0, HeaderSize+len(p.SegmentSizes)), 0)
	return ChecksumUpdate(Checksum(header), p.Payload)
}

// UpdateChecksum recomputes and stores the page checksum.
func (p *Page) UpdateChecksum() {
	p.Checksum = p.ComputeChecksum()
}

// ChecksumValid reports whether the stored checksum matches the page.
func (p *Page) ChecksumValid() bool {
	return p.ComputeChecksum() == p.Checksum
}

// Bytes serializes the page with its stored checksum.
func (p *Page) Bytes() []byte {
	b := p.appendHeader(make([]byte, 0, p.Size()), p.Checksum)
	return append(b, p.Payload...)
}

func (p *Page) MarshalBinary() ([]byte, error) {
	if err := p.ValidateSize(); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

func (p *Page) WriteTo(w io.Writer) (int64, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (p *Page) Clone() *Page {
	np := *p
	np.SegmentSizes = bytes.Clone(p.SegmentSizes)
	np.Payload = bytes.Clone(p.Payload)
	return &np
}

func (p *Page) Equal(o *Page) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Version == o.Version &&
		p.HeaderType == o.HeaderType &&
		p.GranulePosition == o.GranulePosition &&
		p.Serial == o.Serial &&
		p.Sequence == o.Sequence &&
		p.Checksum == o.Checksum &&
		bytes.Equal(p.SegmentSizes, o.SegmentSizes) &&
		bytes.Equal(p.Payload, o.Payload)
}

func (p *Page) String() string {
	return fmt.Sprintf("page %d serial=%#08x granule=%d flags=[%s] segments=%d bytes=%d crc=%#08x",
		p.Sequence, p.Serial, p.GranulePosition, p.HeaderType, len(p.SegmentSizes), len(p.Payload), p.Checksum)
}
