package vorbis

import "fmt"

const (
	codebookSync      = 0x564342
	maxCodewordLength = 32
)

// MaxCodebookEntries limits the entries summed over all codebooks of one
// setup header. Ordered codebooks can declare 2^24 entries in a few bits, so
// the codeword length tables are bounded here rather than by the packet size.
const MaxCodebookEntries = 1 << 20

// LookupType selects how a codebook maps entries to VQ vectors.
type LookupType uint8

const (
	LookupNone LookupType = iota
	LookupImplicit
	LookupExplicit
)

func (t LookupType) String() string {
	switch t {
	case LookupNone:
		return "none"
	case LookupImplicit:
		return "implicit"
	case LookupExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("LookupType(%d)", uint8(t))
	}
}

type Codebook struct {
	Dimensions uint16
	Entries    uint32
	Ordered    bool
	Sparse     bool
	// CodewordLengths has one length per entry; 0 marks an unused entry of
	// a sparse codebook.
	CodewordLengths []uint8

	LookupType    LookupType
	MinimumValue  float32
	DeltaValue    float32
	ValueBits     uint8
	SequenceP     bool
	Lookup1Values uint32
	Multiplicands []uint32
}

// UsedEntries counts the entries that have a codeword.
func (c *Codebook) UsedEntries() int {
	n := 0
	for _, l := range c.CodewordLengths {
		if l != 0 {
			n++
		}
	}
	return n
}

func (f *fieldReader) codebook(i int) *Codebook {
	name := func(field string) string { return fmt.Sprintf("codebook[%d].%s", i, field) }

	if sync := f.uint(24, name("sync")); f.err == nil && sync != codebookSync {
		f.fail(ErrCodebook, name("sync"), uint64(sync), fmt.Sprintf("%#06x", codebookSync))
	}
	c := &Codebook{}
	c.Dimensions = f.u16(name("dimensions"))
	c.Entries = f.uint(24, name("entries"))
	c.Ordered = f.flag(name("ordered"))
	if f.err != nil {
		return nil
	}
	if total := f.entries + uint64(c.Entries); total > MaxCodebookEntries {
		f.fail(ErrCodebook, name("entries"), uint64(c.Entries), fmt.Sprintf("<= %d", MaxCodebookEntries-f.entries))
		return nil
	}
	f.entries += uint64(c.Entries)

	if c.Ordered {
		f.orderedLengths(c, name)
	} else {
		f.unorderedLengths(c, name)
	}
	if f.err != nil {
		return nil
	}

	c.LookupType = LookupType(f.uint(4, name("lookup_type")))
	if f.err != nil {
		return nil
	}
	switch c.LookupType {
	case LookupNone:
		return c
	case LookupImplicit, LookupExplicit:
	default:
		f.fail(ErrCodebook, name("lookup_type"), uint64(c.LookupType), "0, 1 or 2")
		return nil
	}

	c.MinimumValue = Float32Unpack(f.uint(32, name("minimum_value")))
	c.DeltaValue = Float32Unpack(f.uint(32, name("delta_value")))
	c.ValueBits = f.u8(4, name("value_bits")) + 1
	c.SequenceP = f.flag(name("sequence_p"))
	if f.err != nil {
		return nil
	}

	var values uint64
	switch c.LookupType {
	case LookupImplicit:
		if c.Dimensions == 0 {
			f.fail(ErrCodebook, name("dimensions"), 0, "> 0 for a lookup table")
			return nil
		}
		c.Lookup1Values = Lookup1Values(c.Entries, uint32(c.Dimensions))
		values = uint64(c.Lookup1Values)
	case LookupExplicit:
		values = uint64(c.Entries) * uint64(c.Dimensions)
	}
	if values*uint64(c.ValueBits) > uint64(f.br.BitsLeft()) {
		f.fail(ErrEndOfPacket, name("multiplicands"), values, fmt.Sprintf("<= %d values of %d bits", f.br.BitsLeft()/int(c.ValueBits), c.ValueBits))
		return nil
	}

	c.Multiplicands = make([]uint32, values)
	for j := range c.Multiplicands {
		c.Multiplicands[j] = f.uint(int(c.ValueBits), name("multiplicands"))
	}
	if f.err != nil {
		return nil
	}
	return c
}

func (f *fieldReader) unorderedLengths(c *Codebook, name func(string) string) {
	c.Sparse = f.flag(name("sparse"))
	minBits := uint64(5)
	if c.Sparse {
		minBits = 1
	}
	if f.err == nil && uint64(c.Entries)*minBits > uint64(f.br.BitsLeft()) {
		f.fail(ErrEndOfPacket, name("entries"), uint64(c.Entries), fmt.Sprintf("<= %d", uint64(f.br.BitsLeft())/minBits))
	}
	if f.err != nil {
		return
	}

	c.CodewordLengths = make([]uint8, c.Entries)
	for j := range c.CodewordLengths {
		if c.Sparse && !f.flag(name("flag")) {
			continue
		}
		c.CodewordLengths[j] = f.u8(5, name("length")) + 1
		if f.err != nil {
			return
		}
	}
}

func (f *fieldReader) orderedLengths(c *Codebook, name func(string) string) {
	c.CodewordLengths = make([]uint8, c.Entries)
	length := f.uint(5, name("length")) + 1

	for entry := uint32(0); entry < c.Entries && f.err == nil; length++ {
		if length > maxCodewordLength {
			f.fail(ErrCodebook, name("length"), uint64(length), fmt.Sprintf("<= %d", maxCodewordLength))
			return
		}
		number := f.uint(Ilog(c.Entries-entry), name("number"))
		if f.err != nil {
			return
		}
		if uint64(entry)+uint64(number) > uint64(c.Entries) {
			f.fail(ErrCodebook, name("number"), uint64(number), fmt.Sprintf("<= %d remaining entries", c.Entries-entry))
			return
		}
		for end := entry + number; entry < end; entry++ {
			c.CodewordLengths[entry] = uint8(length)
		}
	}
}
