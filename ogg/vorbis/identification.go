package vorbis

import (
	"fmt"
	"math/bits"
)

const (
	minBlocksizeExponent = 6
	maxBlocksizeExponent = 13
	identificationSize   = 30
)

type IdentificationHeader struct {
	Version        uint32
	Channels       uint8
	SampleRate     uint32
	BitrateMaximum int32
	BitrateNominal int32
	BitrateMinimum int32
	// Blocksize0 and Blocksize1 are sample counts, powers of two in [64, 8192].
	Blocksize0 int
	Blocksize1 int
	Framing    bool
}

func (*IdentificationHeader) Type() PacketType { return IdentificationPacket }
func (*IdentificationHeader) isHeader()        {}

// DecodeIdentification decodes an identification header packet.
func DecodeIdentification(data []byte) (*IdentificationHeader, error) {
	if err := checkCommonHeader(data, IdentificationPacket); err != nil {
		return nil, err
	}
	f := newFieldReader(data, IdentificationPacket)

	h := &IdentificationHeader{}
	h.Version = f.uint(32, "vorbis_version")
	if f.err == nil && h.Version != 0 {
		f.fail(ErrInvalidHeader, "vorbis_version", uint64(h.Version), "0")
	}
	h.Channels = f.u8(8, "audio_channels")
	if f.err == nil && h.Channels == 0 {
		f.fail(ErrInvalidHeader, "audio_channels", 0, "> 0")
	}
	h.SampleRate = f.uint(32, "audio_sample_rate")
	if f.err == nil && h.SampleRate == 0 {
		f.fail(ErrInvalidHeader, "audio_sample_rate", 0, "> 0")
	}
	h.BitrateMaximum = int32(f.uint(32, "bitrate_maximum"))
	h.BitrateNominal = int32(f.uint(32, "bitrate_nominal"))
	h.BitrateMinimum = int32(f.uint(32, "bitrate_minimum"))

	exp0 := f.uint(4, "blocksize_0")
	exp1 := f.uint(4, "blocksize_1")
	for _, b := range []struct {
		exp   uint32
		field string
	}{{exp0, "blocksize_0"}, {exp1, "blocksize_1"}} {
		if f.err == nil && (b.exp < minBlocksizeExponent || b.exp > maxBlocksizeExponent) {
			f.fail(ErrInvalidHeader, b.field, 1<<b.exp, "a power of two in [64, 8192]")
		}
	}
	if f.err == nil && exp0 > exp1 {
		f.fail(ErrInvalidHeader, "blocksize_0", 1<<exp0, fmt.Sprintf("<= blocksize_1 (%d)", 1<<exp1))
	}
	h.Blocksize0 = 1 << exp0
	h.Blocksize1 = 1 << exp1
	h.Framing = f.framing()

	if f.err != nil {
		return nil, f.err
	}
	return h, nil
}

// MarshalBinary encodes the header packet.
func (h *IdentificationHeader) MarshalBinary() ([]byte, error) {
	for _, size := range []int{h.Blocksize0, h.Blocksize1} {
		if size <= 0 || size&(size-1) != 0 {
			return nil, fmt.Errorf("%w: blocksize %d is not a power of two", ErrInvalidHeader, size)
		}
	}

	w := &BitWriter{data: make([]byte, 0, identificationSize)}
	appendCommonHeader(w, IdentificationPacket)
	w.WriteUintN(32, h.Version)
	w.WriteUintN(8, uint32(h.Channels))
	w.WriteUintN(32, h.SampleRate)
	w.WriteUintN(32, uint32(h.BitrateMaximum))
	w.WriteUintN(32, uint32(h.BitrateNominal))
	w.WriteUintN(32, uint32(h.BitrateMinimum))
	w.WriteUintN(4, uint32(bits.TrailingZeros(uint(h.Blocksize0))))
	w.WriteUintN(4, uint32(bits.TrailingZeros(uint(h.Blocksize1))))
	w.WriteBool(h.Framing)

	return w.Bytes(), nil
}
