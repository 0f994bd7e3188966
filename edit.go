package vorbisedit

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"vorbisedit/ogg"
	"vorbisedit/ogg/vorbis"
)

var (
	// ErrPageRange reports a page range outside the stream.
	ErrPageRange = errors.New("vorbisedit: page range out of bounds")

	// ErrSplitPacket reports an edit that would cut through a packet.
	ErrSplitPacket = errors.New("vorbisedit: edit splits a packet")

	// ErrNoHeader reports a stream without a Vorbis header packet.
	ErrNoHeader = errors.New("vorbisedit: no vorbis header packet found")
)

// FindPacketByType returns the first packet of type t.
func FindPacketByType(packets []*Packet, t vorbis.PacketType) (*Packet, bool) {
	i := slices.IndexFunc(packets, func(p *Packet) bool { return p.Type == t })
	if i < 0 {
		return nil, false
	}
	return packets[i], true
}

// Trim removes n pages starting at start. Pages after the removed range are
// renumbered so sequence numbers stay contiguous, and their checksums are
// recomputed. The input slice and its pages are not modified.
func Trim(pages []*ogg.Page, start, n int) ([]*ogg.Page, error) {
	if n <= 0 || start < 0 || start+n > len(pages) {
		return nil, fmt.Errorf("%w: remove [%d, %d) from %d pages", ErrPageRange, start, start+n, len(pages))
	}
	if start > 0 && pages[start-1].Continues() {
		return nil, fmt.Errorf("%w: page %d ends inside a packet", ErrSplitPacket, start-1)
	}
	if end := start + n; end < len(pages) && pages[end].IsContinuation() {
		return nil, fmt.Errorf("%w: page %d continues a removed packet", ErrSplitPacket, end)
	}

	out := make([]*ogg.Page, 0, len(pages)-n)
	for _, page := range pages[:start] {
		out = append(out, page.Clone())
	}
	for _, page := range pages[start+n:] {
		out = append(out, page.Clone())
	}
	if len(out) == 0 {
		return out, nil
	}

	if start == 0 && pages[0].IsBOS() {
		out[0].HeaderType |= ogg.BeginningOfStreamFlag
	}
	if start+n == len(pages) && pages[len(pages)-1].IsEOS() {
		out[len(out)-1].HeaderType |= ogg.EndOfStreamFlag
	}

	first := pages[0].Sequence
	if start > 0 {
		first = out[start-1].Sequence + 1
	}
	renumber(out[start:], first)
	if start > 0 {
		out[start-1].UpdateChecksum()
	}

	return out, nil
}

// TrimBeforeHeaders drops everything ahead of the first packet that starts
// like a Vorbis header: whole pages before it and leading fragments on its
// page. The first remaining page becomes the beginning of the stream.
func TrimBeforeHeaders(pages []*ogg.Page) ([]*ogg.Page, error) {
	for p, page := range pages {
		for i := 0; i < page.Segments(); i++ {
			if i == 0 && page.IsContinuation() {
				continue
			}
			seg, err := page.Segment(i)
			if err != nil {
				return nil, err
			}
			if _, ok := vorbis.HeaderType(seg); !ok {
				continue
			}

			out := make([]*ogg.Page, 0, len(pages)-p)
			head := page.Clone()
			if i > 0 {
				if head, err = page.RemoveSegments(0, i); err != nil {
					return nil, err
				}
			}
			head.HeaderType |= ogg.BeginningOfStreamFlag
			out = append(out, head)
			for _, rest := range pages[p+1:] {
				out = append(out, rest.Clone())
			}
			renumber(out, pages[0].Sequence)

			return out, nil
		}
	}

	return nil, ErrNoHeader
}

// renumber gives pages consecutive sequence numbers from first and
// recomputes their checksums.
func renumber(pages []*ogg.Page, first uint32) {
	for i, page := range pages {
		page.Sequence = first + uint32(i)
		page.UpdateChecksum()
	}
}
