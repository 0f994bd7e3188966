package vorbis

import "fmt"

type SetupHeader struct {
	Codebooks []*Codebook
	Floors    []Floor
	Residues  []*Residue
	Mappings  []*Mapping
	Modes     []*Mode
	Framing   bool
}

func (*SetupHeader) Type() PacketType { return SetupPacket }
func (*SetupHeader) isHeader()        {}

// DecodeSetup decodes a setup header packet. channels comes from the
// identification header and sizes the coupling and mux fields.
func DecodeSetup(data []byte, channels uint8) (*SetupHeader, error) {
	if err := checkCommonHeader(data, SetupPacket); err != nil {
		return nil, err
	}
	if channels == 0 {
		return nil, &FieldError{Header: SetupPacket.String(), Field: "audio_channels", Want: "> 0", Err: ErrInvalidHeader}
	}
	f := newFieldReader(data, SetupPacket)
	h := &SetupHeader{}

	count := int(f.u8(8, "vorbis_codebook_count")) + 1
	for i := 0; i < count && f.err == nil; i++ {
		h.Codebooks = append(h.Codebooks, f.codebook(i))
	}

	timeCount := int(f.u8(6, "vorbis_time_count")) + 1
	for i := 0; i < timeCount && f.err == nil; i++ {
		field := fmt.Sprintf("vorbis_time_type[%d]", i)
		if v := f.u16(field); f.err == nil && v != 0 {
			f.fail(ErrInvalidHeader, field, uint64(v), "0")
		}
	}

	count = int(f.u8(6, "vorbis_floor_count")) + 1
	for i := 0; i < count && f.err == nil; i++ {
		h.Floors = append(h.Floors, f.floor(i, len(h.Codebooks)))
	}

	count = int(f.u8(6, "vorbis_residue_count")) + 1
	for i := 0; i < count && f.err == nil; i++ {
		h.Residues = append(h.Residues, f.residue(i, len(h.Codebooks)))
	}

	count = int(f.u8(6, "vorbis_mapping_count")) + 1
	for i := 0; i < count && f.err == nil; i++ {
		h.Mappings = append(h.Mappings, f.mapping(i, channels, len(h.Floors), len(h.Residues)))
	}

	count = int(f.u8(6, "vorbis_mode_count")) + 1
	for i := 0; i < count && f.err == nil; i++ {
		h.Modes = append(h.Modes, f.mode(i, len(h.Mappings)))
	}

	h.Framing = f.framing()
	if f.err != nil {
		return nil, f.err
	}
	return h, nil
}

// FloorCounts returns the number of type 0 and type 1 floors.
func (h *SetupHeader) FloorCounts() (floor0, floor1 int) {
	for _, fl := range h.Floors {
		switch fl.(type) {
		case *Floor0:
			floor0++
		case *Floor1:
			floor1++
		}
	}
	return floor0, floor1
}
