package vorbis

import "fmt"

type Residue struct {
	Type            uint16
	Begin           uint32
	End             uint32
	PartitionSize   uint32
	Classifications uint8
	Classbook       uint8
	// Cascade has one bitmap per classification; bit j selects pass j.
	Cascade []uint8
	// Books holds the book of each classification and pass, -1 when the
	// cascade bit is clear.
	Books [][8]int16
}

func (f *fieldReader) residue(i, codebooks int) *Residue {
	name := func(field string) string { return fmt.Sprintf("residue[%d].%s", i, field) }

	r := &Residue{Type: f.u16(name("type"))}
	if f.err == nil && r.Type > 2 {
		f.fail(ErrInvalidHeader, name("type"), uint64(r.Type), "0, 1 or 2")
	}
	r.Begin = f.uint(24, name("begin"))
	r.End = f.uint(24, name("end"))
	r.PartitionSize = f.uint(24, name("partition_size")) + 1
	r.Classifications = f.u8(6, name("classifications")) + 1
	r.Classbook = f.u8(8, name("classbook"))
	f.index(uint32(r.Classbook), codebooks, name("classbook"))
	if f.err != nil {
		return nil
	}

	r.Cascade = make([]uint8, r.Classifications)
	for j := range r.Cascade {
		low := f.u8(3, name("cascade"))
		var high uint8
		if f.flag(name("bitflag")) {
			high = f.u8(5, name("cascade"))
		}
		r.Cascade[j] = high<<3 | low
	}

	r.Books = make([][8]int16, r.Classifications)
	for j := range r.Books {
		for k := 0; k < 8; k++ {
			r.Books[j][k] = -1
			if r.Cascade[j]&(1<<k) == 0 {
				continue
			}
			book := f.uint(8, name("books"))
			f.index(book, codebooks, name(fmt.Sprintf("books[%d][%d]", j, k)))
			r.Books[j][k] = int16(book)
		}
	}
	if f.err != nil {
		return nil
	}
	return r
}
