package vorbis

import "fmt"

// CouplingStep pairs the magnitude and angle channels of a square polar
// coupling step.
type CouplingStep struct {
	Magnitude uint8
	Angle     uint8
}

type Mapping struct {
	Submaps       uint8
	CouplingSteps []CouplingStep
	// Mux assigns every channel to a submap.
	Mux            []uint8
	SubmapFloors   []uint8
	SubmapResidues []uint8
}

type Mode struct {
	Blockflag     bool
	WindowType    uint16
	TransformType uint16
	Mapping       uint8
}

func (f *fieldReader) mapping(i int, channels uint8, floors, residues int) *Mapping {
	name := func(field string) string { return fmt.Sprintf("mapping[%d].%s", i, field) }

	if mappingType := f.u16(name("type")); f.err == nil && mappingType != 0 {
		f.fail(ErrInvalidHeader, name("type"), uint64(mappingType), "0")
	}

	m := &Mapping{Submaps: 1}
	if f.flag(name("submaps_flag")) {
		m.Submaps = f.u8(4, name("submaps")) + 1
	}

	if f.flag(name("coupling_flag")) {
		steps := int(f.u8(8, name("coupling_steps"))) + 1
		bits := Ilog(uint32(channels) - 1)
		for j := 0; j < steps && f.err == nil; j++ {
			step := CouplingStep{
				Magnitude: uint8(f.uint(bits, name("magnitude"))),
				Angle:     uint8(f.uint(bits, name("angle"))),
			}
			field := name(fmt.Sprintf("coupling[%d]", j))
			switch {
			case f.err != nil:
			case step.Magnitude == step.Angle:
				f.fail(ErrInvalidHeader, field+".angle", uint64(step.Angle), fmt.Sprintf("!= magnitude %d", step.Magnitude))
			default:
				f.index(uint32(step.Magnitude), int(channels), field+".magnitude")
				f.index(uint32(step.Angle), int(channels), field+".angle")
			}
			m.CouplingSteps = append(m.CouplingSteps, step)
		}
	}

	if reserved := f.uint(2, name("reserved")); f.err == nil && reserved != 0 {
		f.fail(ErrInvalidHeader, name("reserved"), uint64(reserved), "0")
	}
	if f.err != nil {
		return nil
	}

	m.Mux = make([]uint8, channels)
	if m.Submaps > 1 {
		for j := range m.Mux {
			m.Mux[j] = f.u8(4, name("mux"))
			f.index(uint32(m.Mux[j]), int(m.Submaps), name(fmt.Sprintf("mux[%d]", j)))
		}
	}

	m.SubmapFloors = make([]uint8, m.Submaps)
	m.SubmapResidues = make([]uint8, m.Submaps)
	for j := 0; j < int(m.Submaps); j++ {
		// Unused time configuration placeholder.
		f.uint(8, name("submap_time"))
		m.SubmapFloors[j] = f.u8(8, name("submap_floor"))
		f.index(uint32(m.SubmapFloors[j]), floors, name(fmt.Sprintf("submap_floor[%d]", j)))
		m.SubmapResidues[j] = f.u8(8, name("submap_residue"))
		f.index(uint32(m.SubmapResidues[j]), residues, name(fmt.Sprintf("submap_residue[%d]", j)))
	}
	if f.err != nil {
		return nil
	}
	return m
}

func (f *fieldReader) mode(i, mappings int) *Mode {
	name := func(field string) string { return fmt.Sprintf("mode[%d].%s", i, field) }

	m := &Mode{
		Blockflag:     f.flag(name("blockflag")),
		WindowType:    f.u16(name("windowtype")),
		TransformType: f.u16(name("transformtype")),
		Mapping:       f.u8(8, name("mapping")),
	}
	if f.err == nil && m.WindowType != 0 {
		f.fail(ErrInvalidHeader, name("windowtype"), uint64(m.WindowType), "0")
	}
	if f.err == nil && m.TransformType != 0 {
		f.fail(ErrInvalidHeader, name("transformtype"), uint64(m.TransformType), "0")
	}
	f.index(uint32(m.Mapping), mappings, name("mapping"))
	if f.err != nil {
		return nil
	}
	return m
}
