package ogg

import (
	"errors"
	"io"

	"golang.org/x/exp/slices"
)

// Packet is a logical packet reassembled from one or more pages.
type Packet struct {
	Serial uint32
	Data   []byte

	// FirstPage and LastPage are the indices, in push order, of the pages
	// holding the first and the last fragment of the packet.
	FirstPage int
	LastPage  int
	// Segment is the fragment index of the packet start within FirstPage.
	Segment int
	// GranulePosition is taken from the page on which the packet completes.
	GranulePosition int64
}

type openPacket struct {
	buf       []byte
	firstPage int
	segment   int
}

type streamState struct {
	open     *openPacket
	sequence uint32
	ended    bool
}

// PacketAssembler merges page fragments into packets. It carries the open
// packet of every logical stream from one page to the next.
type PacketAssembler struct {
	streams map[uint32]*streamState
	pages   int
}

func NewPacketAssembler() *PacketAssembler {
	return &PacketAssembler{streams: make(map[uint32]*streamState)}
}

// Pages returns the number of pages pushed so far.
func (a *PacketAssembler) Pages() int {
	return a.pages
}

// Push consumes the next page and returns the packets that complete on it.
func (a *PacketAssembler) Push(page *Page) ([]*Packet, error) {
	if err := page.ValidateSize(); err != nil {
		return nil, err
	}

	st, seen := a.streams[page.Serial]
	if !seen {
		st = &streamState{}
	} else {
		if st.ended {
			return nil, pageError(page, ErrSequence, "header_type", "page after end of stream")
		}
		if page.Sequence <= st.sequence {
			return nil, pageError(page, ErrSequence, "page_sequence_number", "follows page %d", st.sequence)
		}
	}

	if page.IsContinuation() && st.open == nil {
		return nil, pageError(page, ErrContinuation, "header_type", "continuation flag set with no open packet")
	}
	if !page.IsContinuation() && st.open != nil {
		return nil, pageError(page, ErrTruncatedPacket, "header_type", "open packet from page %d is not continued", st.sequence)
	}

	index := a.pages
	a.pages++
	a.streams[page.Serial] = st
	st.sequence = page.Sequence
	st.ended = page.IsEOS()

	var packets []*Packet
	for i, f := range page.fragments() {
		data := page.Payload[f.offset : f.offset+f.length]
		if i == 0 && st.open != nil {
			st.open.buf = append(st.open.buf, data...)
		} else {
			st.open = &openPacket{
				buf:       append([]byte{}, data...),
				firstPage: index,
				segment:   i,
			}
		}
		if f.open {
			break
		}

		packets = append(packets, &Packet{
			Serial:          page.Serial,
			Data:            st.open.buf,
			FirstPage:       st.open.firstPage,
			LastPage:        index,
			Segment:         st.open.segment,
			GranulePosition: page.GranulePosition,
		})
		st.open = nil
	}

	if st.ended && st.open != nil {
		return nil, pageError(page, ErrTruncatedPacket, "header_type", "end of stream inside a packet")
	}

	return packets, nil
}

// Finish reports a packet left open when the source ended.
func (a *PacketAssembler) Finish() error {
	serials := make([]uint32, 0, len(a.streams))
	for serial := range a.streams {
		serials = append(serials, serial)
	}
	slices.Sort(serials)

	for _, serial := range serials {
		st := a.streams[serial]
		if st.open != nil {
			return &PageError{
				Serial:   serial,
				Sequence: st.sequence,
				Detail:   "last lacing value is 255 and no page follows",
				Err:      ErrTruncatedPacket,
			}
		}
	}
	return nil
}

// PacketDecoder reads packets from a byte stream one at a time.
type PacketDecoder struct {
	pd      *PageDecoder
	asm     *PacketAssembler
	pending []*Packet
	page    *Page
}

func NewPacketDecoder(r io.Reader) *PacketDecoder {
	return &PacketDecoder{
		pd:  NewPageDecoder(r),
		asm: NewPacketAssembler(),
	}
}

// Page returns the last page read.
func (d *PacketDecoder) Page() *Page {
	return d.page
}

// NextPacket returns the next complete packet, or io.EOF once the stream
// has ended with no packet left open.
func (d *PacketDecoder) NextPacket() (*Packet, error) {
	for len(d.pending) == 0 {
		if err := d.nextPage(); err != nil {
			return nil, err
		}
	}

	packet := d.pending[0]
	d.pending = d.pending[1:]

	return packet, nil
}

func (d *PacketDecoder) nextPage() error {
	page, err := d.pd.NextPage()
	if errors.Is(err, io.EOF) {
		if err := d.asm.Finish(); err != nil {
			return err
		}
		return io.EOF
	}
	if err != nil {
		return err
	}

	packets, err := d.asm.Push(page)
	if err != nil {
		return err
	}
	d.page = page
	d.pending = append(d.pending, packets...)

	return nil
}
