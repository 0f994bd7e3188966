package vorbis

import "fmt"

// PacketType is the first byte of a Vorbis packet.
type PacketType uint8

const (
	BodyPacket           PacketType = 0
	IdentificationPacket PacketType = 1
	CommentPacket        PacketType = 3
	SetupPacket          PacketType = 5
)

func (t PacketType) String() string {
	switch t {
	case BodyPacket:
		return "body"
	case IdentificationPacket:
		return "identification"
	case CommentPacket:
		return "comment"
	case SetupPacket:
		return "setup"
	default:
		return fmt.Sprintf("PacketType(%d)", uint8(t))
	}
}

const magic = "vorbis"

// commonHeaderSize is the packet type byte plus the magic.
const commonHeaderSize = 7

// Header is implemented by the three decoded header packets.
type Header interface {
	Type() PacketType
	isHeader()
}

// HeaderType returns the header type of a packet that starts with a Vorbis
// common header, and false for anything else.
func HeaderType(data []byte) (PacketType, bool) {
	if len(data) < commonHeaderSize || string(data[1:commonHeaderSize]) != magic {
		return 0, false
	}
	switch t := PacketType(data[0]); t {
	case IdentificationPacket, CommentPacket, SetupPacket:
		return t, true
	default:
		return 0, false
	}
}

func checkCommonHeader(data []byte, want PacketType) error {
	if len(data) < commonHeaderSize {
		return &FieldError{Header: want.String(), Field: "common header", Value: uint64(len(data)), Want: "at least 7 bytes", Err: ErrEndOfPacket}
	}
	if got := PacketType(data[0]); got != want {
		return &FieldError{Header: want.String(), Field: "packet_type", Value: uint64(got), Want: fmt.Sprint(uint8(want)), Err: ErrInvalidHeader}
	}
	if string(data[1:commonHeaderSize]) != magic {
		return &FieldError{Header: want.String(), Field: fmt.Sprintf("magic %q", data[1:commonHeaderSize]), Err: ErrInvalidHeader}
	}
	return nil
}

func appendCommonHeader(w *BitWriter, t PacketType) {
	w.WriteUintN(8, uint32(t))
	w.WriteBytes([]byte(magic))
}

// fieldReader wraps a BitReader with a sticky error that names the first
// field that could not be read or did not validate.
type fieldReader struct {
	br     *BitReader
	header string
	err    error
	// entries counts codebook entries decoded so far.
	entries uint64
}

func newFieldReader(data []byte, t PacketType) *fieldReader {
	br := NewBitReader(data)
	br.cursor = commonHeaderSize * 8
	return &fieldReader{br: br, header: t.String()}
}

func (f *fieldReader) uint(n int, field string) uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.br.ReadUintN(n)
	if err != nil {
		f.err = &FieldError{Header: f.header, Field: field, Err: err}
	}
	return v
}

func (f *fieldReader) u8(n int, field string) uint8 {
	return uint8(f.uint(n, field))
}

func (f *fieldReader) u16(field string) uint16 {
	return uint16(f.uint(16, field))
}

func (f *fieldReader) flag(field string) bool {
	return f.uint(1, field) == 1
}

func (f *fieldReader) bytes(n uint32, field string) []byte {
	if f.err != nil {
		return nil
	}
	b, err := f.br.ReadBytes(int(n))
	if err != nil {
		f.err = &FieldError{Header: f.header, Field: field, Value: uint64(n), Err: err}
	}
	return b
}

// fail records a validation failure unless an earlier one is pending.
func (f *fieldReader) fail(err error, field string, value uint64, want string) {
	if f.err == nil {
		f.err = &FieldError{Header: f.header, Field: field, Value: value, Want: want, Err: err}
	}
}

// index validates a reference into a table of count entries.
func (f *fieldReader) index(v uint32, count int, field string) {
	if f.err == nil && int(v) >= count {
		f.fail(ErrOutOfRange, field, uint64(v), fmt.Sprintf("< %d", count))
	}
}

// framing reads the trailing framing bit, which must be set.
func (f *fieldReader) framing() bool {
	set := f.flag("framing_flag")
	if f.err == nil && !set {
		f.fail(ErrInvalidHeader, "framing_flag", 0, "1")
	}
	return set
}
