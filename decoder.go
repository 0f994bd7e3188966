package vorbisedit

import (
	"fmt"
	"io"

	"vorbisedit/ogg"
	"vorbisedit/ogg/vorbis"
)

// Decoder reads the headers of an Ogg Vorbis stream and then hands out the
// audio packets one at a time without keeping pages around.
type Decoder struct {
	pd *ogg.PacketDecoder

	streamSerial uint32
	started      bool

	Identification *vorbis.IdentificationHeader
	Comment        *vorbis.CommentHeader
	Setup          *vorbis.SetupHeader
}

func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{pd: ogg.NewPacketDecoder(r)}

	var headers [3]*Packet
	for i := range headers {
		packet, err := d.nextPacket()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: stream has %d packets", ErrMissingHeaders, i)
		}
		if err != nil {
			return nil, err
		}
		headers[i], err = classify(packet, i, headers[:i])
		if err != nil {
			return nil, err
		}
	}

	d.Identification = headers[0].Header.(*vorbis.IdentificationHeader)
	d.Comment = headers[1].Header.(*vorbis.CommentHeader)
	d.Setup = headers[2].Header.(*vorbis.SetupHeader)

	return d, nil
}

// NextPacket returns the next audio packet, or io.EOF at the end of the
// stream.
func (d *Decoder) NextPacket() (*ogg.Packet, error) {
	return d.nextPacket()
}

func (d *Decoder) nextPacket() (*ogg.Packet, error) {
	packet, err := d.pd.NextPacket()
	if err != nil {
		return nil, err
	}

	if !d.started {
		d.streamSerial = packet.Serial
		d.started = true
	} else if packet.Serial != d.streamSerial {
		return nil, ErrMultipleStreams
	}

	return packet, nil
}
