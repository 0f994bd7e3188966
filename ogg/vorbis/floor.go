package vorbis

import "fmt"

const maxFloor1Values = 65

// Floor is a *Floor0 or a *Floor1.
type Floor interface {
	FloorType() uint16
	isFloor()
}

// Floor0 describes an LSP floor curve.
type Floor0 struct {
	Order           uint8
	Rate            uint16
	BarkMapSize     uint16
	AmplitudeBits   uint8
	AmplitudeOffset uint8
	NumberOfBooks   uint8
	Books           []uint8
}

func (*Floor0) FloorType() uint16 { return 0 }
func (*Floor0) isFloor()          {}

// Floor1 describes a piecewise linear floor curve.
type Floor1 struct {
	Partitions         uint8
	PartitionClassList []uint8
	ClassDimensions    []uint8
	ClassSubclasses    []uint8
	// ClassMasterbooks and SubclassBooks use -1 for "no book".
	ClassMasterbooks []int16
	SubclassBooks    [][]int16
	Multiplier       uint8
	RangeBits        uint8
	XList            []uint32
}

func (*Floor1) FloorType() uint16 { return 1 }
func (*Floor1) isFloor()          {}

func (f *fieldReader) floor(i, codebooks int) Floor {
	field := fmt.Sprintf("floor[%d].type", i)
	switch floorType := f.u16(field); {
	case f.err != nil:
		return nil
	case floorType == 0:
		return f.floor0(i, codebooks)
	case floorType == 1:
		return f.floor1(i, codebooks)
	default:
		f.fail(ErrInvalidHeader, field, uint64(floorType), "0 or 1")
		return nil
	}
}

func (f *fieldReader) floor0(i, codebooks int) *Floor0 {
	name := func(field string) string { return fmt.Sprintf("floor[%d].%s", i, field) }

	fl := &Floor0{
		Order:           f.u8(8, name("order")),
		Rate:            f.u16(name("rate")),
		BarkMapSize:     f.u16(name("bark_map_size")),
		AmplitudeBits:   f.u8(6, name("amplitude_bits")),
		AmplitudeOffset: f.u8(8, name("amplitude_offset")),
		NumberOfBooks:   f.u8(4, name("number_of_books")) + 1,
	}
	if f.err != nil {
		return nil
	}
	fl.Books = make([]uint8, fl.NumberOfBooks)
	for j := range fl.Books {
		fl.Books[j] = f.u8(8, name("book_list"))
		f.index(uint32(fl.Books[j]), codebooks, name(fmt.Sprintf("book_list[%d]", j)))
	}
	if f.err != nil {
		return nil
	}
	return fl
}

func (f *fieldReader) floor1(i, codebooks int) *Floor1 {
	name := func(field string) string { return fmt.Sprintf("floor[%d].%s", i, field) }

	fl := &Floor1{Partitions: f.u8(5, name("partitions"))}
	if f.err != nil {
		return nil
	}
	classes := 0
	fl.PartitionClassList = make([]uint8, fl.Partitions)
	for j := range fl.PartitionClassList {
		class := f.u8(4, name("partition_class_list"))
		fl.PartitionClassList[j] = class
		if int(class)+1 > classes {
			classes = int(class) + 1
		}
	}
	if f.err != nil {
		return nil
	}

	fl.ClassDimensions = make([]uint8, classes)
	fl.ClassSubclasses = make([]uint8, classes)
	fl.ClassMasterbooks = make([]int16, classes)
	fl.SubclassBooks = make([][]int16, classes)
	for c := 0; c < classes && f.err == nil; c++ {
		fl.ClassDimensions[c] = f.u8(3, name("class_dimensions")) + 1
		fl.ClassSubclasses[c] = f.u8(2, name("class_subclasses"))
		fl.ClassMasterbooks[c] = -1
		if fl.ClassSubclasses[c] > 0 {
			book := f.uint(8, name("class_masterbooks"))
			f.index(book, codebooks, name(fmt.Sprintf("class_masterbooks[%d]", c)))
			fl.ClassMasterbooks[c] = int16(book)
		}
		fl.SubclassBooks[c] = make([]int16, 1<<fl.ClassSubclasses[c])
		for j := range fl.SubclassBooks[c] {
			book := int16(f.uint(8, name("subclass_books"))) - 1
			if book >= 0 {
				f.index(uint32(book), codebooks, name(fmt.Sprintf("subclass_books[%d][%d]", c, j)))
			}
			fl.SubclassBooks[c][j] = book
		}
	}

	fl.Multiplier = f.u8(2, name("multiplier")) + 1
	fl.RangeBits = f.u8(4, name("rangebits"))
	if f.err != nil {
		return nil
	}

	values := 2
	for _, class := range fl.PartitionClassList {
		values += int(fl.ClassDimensions[class])
	}
	if values > maxFloor1Values {
		f.fail(ErrInvalidHeader, name("x_list"), uint64(values), fmt.Sprintf("<= %d values", maxFloor1Values))
		return nil
	}

	fl.XList = make([]uint32, 2, values)
	fl.XList[1] = 1 << fl.RangeBits
	seen := map[uint32]bool{0: true, fl.XList[1]: true}
	for _, class := range fl.PartitionClassList {
		for k := uint8(0); k < fl.ClassDimensions[class]; k++ {
			x := f.uint(int(fl.RangeBits), name("x_list"))
			if f.err != nil {
				return nil
			}
			if seen[x] {
				f.fail(ErrInvalidHeader, name(fmt.Sprintf("x_list[%d]", len(fl.XList))), uint64(x), "a value not already in the list")
				return nil
			}
			seen[x] = true
			fl.XList = append(fl.XList, x)
		}
	}
	return fl
}
