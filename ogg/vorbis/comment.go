package vorbis

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

// CommentHeader holds the vendor string and the user comments in stream
// order. Comments are normally of the form "TAG=value".
type CommentHeader struct {
	Vendor   string
	Comments []string
	Framing  bool
}

func (*CommentHeader) Type() PacketType { return CommentPacket }
func (*CommentHeader) isHeader()        {}

// NewCommentHeader builds a comment header from a tag map. Tags are upper
// cased and sorted so that equal maps produce equal packets; values keep
// their order.
func NewCommentHeader(vendor string, fields map[string][]string) *CommentHeader {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	grouped := make(map[string][]string, len(keys))
	tags := make([]string, 0, len(keys))
	for _, key := range keys {
		tag := strings.ToUpper(key)
		if _, ok := grouped[tag]; !ok {
			tags = append(tags, tag)
		}
		grouped[tag] = append(grouped[tag], fields[key]...)
	}
	slices.Sort(tags)

	h := &CommentHeader{Vendor: vendor, Framing: true}
	for _, tag := range tags {
		for _, value := range grouped[tag] {
			h.Comments = append(h.Comments, tag+"="+value)
		}
	}
	return h
}

// ValidateFields checks a tag map before it is encoded. Tags must be
// non-empty printable ASCII (0x20 to 0x7D) without '=', values must be valid
// UTF-8.
func ValidateFields(fields map[string][]string) error {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		field := fmt.Sprintf("tag %q", key)
		if key == "" {
			return &FieldError{Header: "comment", Field: "tag (empty)", Err: ErrInvalidHeader}
		}
		for i := 0; i < len(key); i++ {
			if c := key[i]; c < 0x20 || c > 0x7d || c == '=' {
				return &FieldError{Header: "comment", Field: field, Value: uint64(c), Want: "0x20..0x7d except '='", Err: ErrInvalidHeader}
			}
		}
		for i, value := range fields[key] {
			if !utf8.ValidString(value) {
				return &FieldError{Header: "comment", Field: fmt.Sprintf("%s value[%d] (invalid UTF-8)", field, i), Err: ErrInvalidHeader}
			}
		}
	}
	return nil
}

// Fields groups the comments by upper-cased tag. Comments without '=' are
// left out.
func (h *CommentHeader) Fields() map[string][]string {
	fields := make(map[string][]string)
	for _, comment := range h.Comments {
		key, value, ok := strings.Cut(comment, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(key)
		fields[key] = append(fields[key], value)
	}
	return fields
}

// Get returns the values of a tag, matched case-insensitively.
func (h *CommentHeader) Get(tag string) []string {
	return h.Fields()[strings.ToUpper(tag)]
}

// DecodeComment decodes a comment header packet.
func DecodeComment(data []byte) (*CommentHeader, error) {
	if err := checkCommonHeader(data, CommentPacket); err != nil {
		return nil, err
	}
	f := newFieldReader(data, CommentPacket)

	h := &CommentHeader{}
	h.Vendor = f.text("vendor_string")
	count := f.uint(32, "user_comment_list_length")
	// Every comment takes at least its 4-byte length.
	if f.err == nil && uint64(count)*32 > uint64(f.br.BitsLeft()) {
		f.fail(ErrEndOfPacket, "user_comment_list_length", uint64(count), fmt.Sprintf("<= %d", f.br.BitsLeft()/32))
	}
	if f.err != nil {
		return nil, f.err
	}

	h.Comments = make([]string, 0, count)
	for i := uint32(0); i < count && f.err == nil; i++ {
		h.Comments = append(h.Comments, f.text(fmt.Sprintf("user_comment[%d]", i)))
	}
	h.Framing = f.framing()

	if f.err != nil {
		return nil, f.err
	}
	return h, nil
}

func (f *fieldReader) text(field string) string {
	n := f.uint(32, field+" length")
	b := f.bytes(n, field)
	if f.err == nil && !utf8.Valid(b) {
		f.fail(ErrInvalidHeader, field+" (invalid UTF-8)", 0, "")
	}
	return string(b)
}

// MarshalBinary encodes the header packet with the framing bit set. Strings
// that are not valid UTF-8 are rejected, as DecodeComment would reject them.
func (h *CommentHeader) MarshalBinary() ([]byte, error) {
	if !utf8.ValidString(h.Vendor) {
		return nil, &FieldError{Header: "comment", Field: "vendor_string (invalid UTF-8)", Err: ErrInvalidHeader}
	}
	for i, comment := range h.Comments {
		if !utf8.ValidString(comment) {
			return nil, &FieldError{Header: "comment", Field: fmt.Sprintf("user_comment[%d] (invalid UTF-8)", i), Err: ErrInvalidHeader}
		}
	}

	size := commonHeaderSize + 4 + len(h.Vendor) + 4 + 1
	for _, comment := range h.Comments {
		size += 4 + len(comment)
	}

	b := make([]byte, 0, size)
	b = append(b, byte(CommentPacket))
	b = append(b, magic...)
	b = appendString(b, h.Vendor)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(h.Comments)))
	for _, comment := range h.Comments {
		b = appendString(b, comment)
	}
	b = append(b, 1)

	return b, nil
}

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}
