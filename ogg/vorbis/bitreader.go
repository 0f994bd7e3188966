package vorbis

import "fmt"

// BitReader reads little-endian bit fields the way Vorbis packs them: the
// first field starts at the least significant bit of the first byte.
type BitReader struct {
	data   []byte
	cursor int
}

func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// Offset returns the cursor position in bits.
func (r *BitReader) Offset() int {
	return r.cursor
}

func (r *BitReader) BitsLeft() int {
	return len(r.data)*8 - r.cursor
}

// ReadUintN reads an n-bit unsigned integer, 0 <= n <= 32. On failure the
// cursor does not move.
func (r *BitReader) ReadUintN(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, fmt.Errorf("vorbis: cannot read %d bits into a 32-bit value", n)
	}
	if n == 0 {
		return 0, nil
	}
	if left := r.BitsLeft(); left < n {
		return 0, fmt.Errorf("%w: need %d bits at offset %d, %d left", ErrEndOfPacket, n, r.cursor, left)
	}

	var v uint32
	for read := 0; read < n; {
		shift := r.cursor & 7
		take := 8 - shift
		if rest := n - read; rest < take {
			take = rest
		}
		chunk := uint32(r.data[r.cursor>>3]>>shift) & (1<<take - 1)
		v |= chunk << read
		read += take
		r.cursor += take
	}

	return v, nil
}

func (r *BitReader) ReadBool() (bool, error) {
	v, err := r.ReadUintN(1)
	return v == 1, err
}

func (r *BitReader) readSmall(n int) (uint8, error) {
	v, err := r.ReadUintN(n)
	return uint8(v), err
}

func (r *BitReader) ReadUint2() (uint8, error) { return r.readSmall(2) }
func (r *BitReader) ReadUint3() (uint8, error) { return r.readSmall(3) }
func (r *BitReader) ReadUint4() (uint8, error) { return r.readSmall(4) }
func (r *BitReader) ReadUint5() (uint8, error) { return r.readSmall(5) }
func (r *BitReader) ReadUint6() (uint8, error) { return r.readSmall(6) }
func (r *BitReader) ReadUint8() (uint8, error) { return r.readSmall(8) }

func (r *BitReader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(16)
	return uint16(v), err
}

func (r *BitReader) ReadUint24() (uint32, error) {
	return r.ReadUintN(24)
}

func (r *BitReader) ReadUint32() (uint32, error) {
	return r.ReadUintN(32)
}

// ReadBytes copies n whole bytes. The cursor must sit on a byte boundary.
func (r *BitReader) ReadBytes(n int) ([]byte, error) {
	if r.cursor&7 != 0 {
		return nil, fmt.Errorf("vorbis: byte read at unaligned bit offset %d", r.cursor)
	}
	if n < 0 || n > r.BitsLeft()/8 {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d left", ErrEndOfPacket, n, r.cursor/8, r.BitsLeft()/8)
	}
	start := r.cursor >> 3
	r.cursor += n * 8

	return append([]byte{}, r.data[start:start+n]...), nil
}
