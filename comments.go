package vorbisedit

import (
	"fmt"

	"vorbisedit/ogg"
	"vorbisedit/ogg/vorbis"
)

// laceUnit is one lacing value of the repaginated region with the bytes it
// covers.
type laceUnit struct {
	data []byte
	// completes is set on the last unit of a closed packet.
	completes bool
	granule   int64
}

// UpdateComments replaces the comment header of a single-stream Vorbis file.
// An empty vendor keeps the current vendor string. The pages that carried
// the old comment packet are repaginated to fit the new one, later pages are
// renumbered, and all changed pages get new checksums. On error the input is
// left as it was. Tags and values are checked with vorbis.ValidateFields
// before any page is built.
func UpdateComments(pages []*ogg.Page, vendor string, comments map[string][]string) ([]*ogg.Page, error) {
	if err := vorbis.ValidateFields(comments); err != nil {
		return nil, err
	}
	packet, err := findCommentPacket(pages)
	if err != nil {
		return nil, err
	}
	old, err := vorbis.DecodeComment(packet.Data)
	if err != nil {
		return nil, err
	}
	if vendor == "" {
		vendor = old.Vendor
	}
	header := vorbis.NewCommentHeader(vendor, comments)
	data, err := header.MarshalBinary()
	if err != nil {
		return nil, err
	}

	first, last := pages[packet.FirstPage], pages[packet.LastPage]

	var units []laceUnit
	for i := 0; i < packet.Segment; i++ {
		seg, err := first.Segment(i)
		if err != nil {
			return nil, err
		}
		units = appendLacing(units, seg, true, first.GranulePosition)
	}
	units = appendLacing(units, data, true, last.GranulePosition)

	// The comment ends in the first fragment of its last page unless it
	// starts and ends on the same page.
	end := 0
	if packet.FirstPage == packet.LastPage {
		end = packet.Segment
	}
	for i := end + 1; i < last.Segments(); i++ {
		seg, err := last.Segment(i)
		if err != nil {
			return nil, err
		}
		closed := i < last.Segments()-1 || !last.Continues()
		units = appendLacing(units, seg, closed, last.GranulePosition)
	}

	region := paginate(units, first, last)

	replaced := packet.LastPage - packet.FirstPage + 1
	out := make([]*ogg.Page, 0, len(pages)-replaced+len(region))
	for _, page := range pages[:packet.FirstPage] {
		out = append(out, page.Clone())
	}
	out = append(out, region...)
	for _, page := range pages[packet.LastPage+1:] {
		out = append(out, page.Clone())
	}
	renumber(out[packet.FirstPage:], first.Sequence)

	return out, nil
}

func findCommentPacket(pages []*ogg.Page) (*ogg.Packet, error) {
	asm := ogg.NewPacketAssembler()
	for _, page := range pages {
		if page.Serial != pages[0].Serial {
			return nil, fmt.Errorf("%w: serial %#08x after %#08x", ErrMultipleStreams, page.Serial, pages[0].Serial)
		}
		packets, err := asm.Push(page)
		if err != nil {
			return nil, err
		}
		for _, p := range packets {
			if t, ok := vorbis.HeaderType(p.Data); ok && t == vorbis.CommentPacket {
				return p, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: no comment header", ErrMissingHeaders)
}

// appendLacing splits data into lacing units. A closed packet gets a final
// unit below 255 bytes, which is empty when its length is a multiple of 255.
func appendLacing(units []laceUnit, data []byte, closed bool, granule int64) []laceUnit {
	for len(data) >= 255 {
		units = append(units, laceUnit{data: data[:255], granule: granule})
		data = data[255:]
	}
	if closed {
		units = append(units, laceUnit{data: data, completes: true, granule: granule})
	}
	return units
}

// paginate packs units into as few pages as possible. Flags and stream
// identity come from the first and last page of the replaced region.
func paginate(units []laceUnit, first, last *ogg.Page) []*ogg.Page {
	var pages []*ogg.Page
	for len(units) > 0 {
		n := len(units)
		if n > ogg.MaxSegments {
			n = ogg.MaxSegments
		}
		chunk := units[:n]
		units = units[n:]

		page := &ogg.Page{
			Version:         first.Version,
			Serial:          first.Serial,
			GranulePosition: ogg.NoGranulePosition,
		}
		if len(pages) == 0 {
			page.HeaderType = first.HeaderType &^ ogg.EndOfStreamFlag
		} else if prev := pages[len(pages)-1]; prev.Continues() {
			page.HeaderType = ogg.ContinuationFlag
		}
		if len(units) == 0 {
			page.HeaderType |= last.HeaderType & ogg.EndOfStreamFlag
		}

		for _, u := range chunk {
			page.SegmentSizes = append(page.SegmentSizes, uint8(len(u.data)))
			page.Payload = append(page.Payload, u.data...)
			if u.completes {
				page.GranulePosition = u.granule
			}
		}
		pages = append(pages, page)
	}

	return pages
}
