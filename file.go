// Package vorbisedit reads Ogg Vorbis files into checked pages and
// classified packets, and rewrites them: comment headers, page ranges and
// data in front of the headers.
package vorbisedit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"vorbisedit/ogg"
	"vorbisedit/ogg/vorbis"
)

// pageQueueSize bounds how far the page reader can run ahead of packet
// assembly.
const pageQueueSize = 16

var (
	// ErrMissingHeaders reports a stream that ends before the three Vorbis
	// header packets.
	ErrMissingHeaders = errors.New("vorbisedit: missing vorbis header packets")

	// ErrMultipleStreams reports a multiplexed Ogg file.
	ErrMultipleStreams = errors.New("vorbisedit: files with multiple streams are not supported")
)

// Packet is a reassembled packet classified by its position in the stream.
type Packet struct {
	*ogg.Packet
	Type vorbis.PacketType
	// Header is nil for body packets.
	Header vorbis.Header
}

// File is a fully read Ogg Vorbis stream.
type File struct {
	Serial  uint32
	Pages   []*ogg.Page
	Packets []*Packet
}

func (f *File) Identification() *vorbis.IdentificationHeader {
	return f.Packets[0].Header.(*vorbis.IdentificationHeader)
}

func (f *File) Comment() *vorbis.CommentHeader {
	return f.Packets[1].Header.(*vorbis.CommentHeader)
}

func (f *File) Setup() *vorbis.SetupHeader {
	return f.Packets[2].Header.(*vorbis.SetupHeader)
}

// WriteTo writes the pages of the file.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	return WritePages(w, f.Pages)
}

// WritePages serializes pages in order.
func WritePages(w io.Writer, pages []*ogg.Page) (int64, error) {
	var total int64
	for _, page := range pages {
		n, err := page.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadFile reads a whole Ogg Vorbis stream. Pages are read and checked on
// one goroutine while another reassembles, classifies and decodes packets.
// The first structural error aborts the read.
func ReadFile(ctx context.Context, r io.Reader) (*File, error) {
	eg, ctx := errgroup.WithContext(ctx)
	pages := make(chan *ogg.Page, pageQueueSize)

	eg.Go(func() error {
		pd := ogg.NewPageDecoder(r)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := pd.NextPage()
			if errors.Is(err, io.EOF) {
				close(pages)
				return nil
			}
			if err != nil {
				return fmt.Errorf("read page at offset %d: %w", pd.Offset(), err)
			}

			select {
			case pages <- page:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	file := &File{}
	eg.Go(func() error {
		asm := ogg.NewPacketAssembler()
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case page, ok := <-pages:
				if !ok {
					if err := asm.Finish(); err != nil {
						return err
					}
					if len(file.Packets) < 3 {
						return fmt.Errorf("%w: stream has %d packets", ErrMissingHeaders, len(file.Packets))
					}
					return nil
				}
				if err := file.push(asm, page); err != nil {
					return err
				}
			}
		}
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return file, nil
}

// Collect parses an Ogg Vorbis stream that is already in memory.
func Collect(data []byte) (*File, error) {
	return ReadFile(context.Background(), bytes.NewReader(data))
}

func (f *File) push(asm *ogg.PacketAssembler, page *ogg.Page) error {
	if len(f.Pages) == 0 {
		f.Serial = page.Serial
	} else if page.Serial != f.Serial {
		return fmt.Errorf("%w: serial %#08x after %#08x", ErrMultipleStreams, page.Serial, f.Serial)
	}
	f.Pages = append(f.Pages, page)

	packets, err := asm.Push(page)
	if err != nil {
		return err
	}
	for _, p := range packets {
		packet, err := classify(p, len(f.Packets), f.Packets)
		if err != nil {
			return fmt.Errorf("packet %d on page %d: %w", len(f.Packets), page.Sequence, err)
		}
		f.Packets = append(f.Packets, packet)
	}
	return nil
}

// classify decodes the packet at position n: the first three packets are the
// identification, comment and setup headers, the rest are audio.
func classify(p *ogg.Packet, n int, previous []*Packet) (*Packet, error) {
	packet := &Packet{Packet: p}
	var err error
	switch n {
	case 0:
		packet.Type = vorbis.IdentificationPacket
		packet.Header, err = decodeHeader(vorbis.DecodeIdentification(p.Data))
	case 1:
		packet.Type = vorbis.CommentPacket
		packet.Header, err = decodeHeader(vorbis.DecodeComment(p.Data))
	case 2:
		packet.Type = vorbis.SetupPacket
		channels := previous[0].Header.(*vorbis.IdentificationHeader).Channels
		packet.Header, err = decodeHeader(vorbis.DecodeSetup(p.Data, channels))
	default:
		packet.Type = vorbis.BodyPacket
	}
	if err != nil {
		return nil, err
	}
	return packet, nil
}

// decodeHeader keeps a typed nil pointer out of the Header interface.
func decodeHeader[H vorbis.Header](h H, err error) (vorbis.Header, error) {
	if err != nil {
		return nil, err
	}
	return h, nil
}
