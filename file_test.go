package vorbisedit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/iotest"

	"vorbisedit/ogg"
	"vorbisedit/ogg/vorbis"
)

func TestReadFile(t *testing.T) {
	tf := newTestFile(t)

	file, err := ReadFile(context.Background(), iotest.HalfReader(bytes.NewReader(tf.bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if file.Serial != testSerial || len(file.Pages) != len(tf.pages) {
		t.Fatalf("serial %#x with %d pages", file.Serial, len(file.Pages))
	}
	assertSamePages(t, file.Pages, tf.pages)

	wantTypes := []vorbis.PacketType{
		vorbis.IdentificationPacket, vorbis.CommentPacket, vorbis.SetupPacket,
		vorbis.BodyPacket, vorbis.BodyPacket, vorbis.BodyPacket, vorbis.BodyPacket, vorbis.BodyPacket,
	}
	if len(file.Packets) != len(wantTypes) {
		t.Fatalf("got %d packets, want %d", len(file.Packets), len(wantTypes))
	}
	for i, p := range file.Packets {
		if p.Type != wantTypes[i] {
			t.Fatalf("packet %d is %v, want %v", i, p.Type, wantTypes[i])
		}
		if (p.Header == nil) != (p.Type == vorbis.BodyPacket) {
			t.Fatalf("packet %d: header %T for type %v", i, p.Header, p.Type)
		}
		if p.Header != nil && p.Header.Type() != p.Type {
			t.Fatalf("packet %d: header type %v", i, p.Header.Type())
		}
	}
	for i, data := range tf.audio {
		if !bytes.Equal(file.Packets[3+i].Data, data) {
			t.Fatalf("audio packet %d differs", i)
		}
	}

	spanning := file.Packets[5]
	if spanning.FirstPage != 3 || spanning.LastPage != 4 || spanning.GranulePosition != 2048 {
		t.Fatalf("spanning packet on pages %d..%d granule %d", spanning.FirstPage, spanning.LastPage, spanning.GranulePosition)
	}
	setup := file.Packets[2]
	if setup.FirstPage != 1 || setup.Segment != 1 {
		t.Fatalf("setup packet at page %d segment %d", setup.FirstPage, setup.Segment)
	}

	if id := file.Identification(); id.Channels != 1 || id.SampleRate != 48000 || id.Blocksize1 != 2048 {
		t.Fatalf("identification %+v", id)
	}
	if c := file.Comment(); c.Vendor != testVendor || c.Get("title")[0] != "Sine" {
		t.Fatalf("comment %+v", c)
	}
	if s := file.Setup(); len(s.Codebooks) != 1 || len(s.Modes) != 1 {
		t.Fatalf("setup %+v", s)
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), tf.bytes()) {
		t.Fatal("WriteTo does not reproduce the input")
	}
}

func TestReadFileSetupSpanningPages(t *testing.T) {
	tf := newTestFile(t)
	header, err := Collect(tf.bytes())
	if err != nil {
		t.Fatal(err)
	}
	id, comment := header.Packets[0].Data, header.Packets[1].Data

	// Trailing bytes after the framing bit are ignored by the decoder.
	setup := append(testSetup(), make([]byte, 352-len(testSetup()))...)
	audio := tf.audio[0]

	first := &ogg.Page{
		Serial:       testSerial,
		Sequence:     1,
		SegmentSizes: append(ogg.Lace(len(comment)), 255),
		Payload:      append(bytes.Clone(comment), setup[:255]...),
	}
	first.UpdateChecksum()
	second := &ogg.Page{
		HeaderType:      ogg.ContinuationFlag | ogg.EndOfStreamFlag,
		GranulePosition: 1024,
		Serial:          testSerial,
		Sequence:        2,
		SegmentSizes:    ogg.Lace(len(setup)-255, len(audio)),
		Payload:         append(bytes.Clone(setup[255:]), audio...),
	}
	second.UpdateChecksum()

	idPage, err := ogg.NewPage(ogg.BeginningOfStreamFlag, 0, testSerial, 0, id)
	if err != nil {
		t.Fatal(err)
	}
	pages := []*ogg.Page{idPage, first, second}

	file, err := ReadFile(context.Background(), iotest.OneByteReader(pagesReader(pages)))
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Packets) != 4 {
		t.Fatalf("got %d packets, want 4", len(file.Packets))
	}
	p := file.Packets[2]
	if p.Type != vorbis.SetupPacket || p.FirstPage != 1 || p.LastPage != 2 || p.Segment != 1 {
		t.Fatalf("setup packet %v on pages %d..%d segment %d", p.Type, p.FirstPage, p.LastPage, p.Segment)
	}
	if !bytes.Equal(p.Data, setup) {
		t.Fatalf("setup packet has %d bytes, want %d", len(p.Data), len(setup))
	}
	if s := file.Setup(); s == nil || len(s.Codebooks) != 1 {
		t.Fatalf("setup %+v", s)
	}
	if body := file.Packets[3]; body.Type != vorbis.BodyPacket || !bytes.Equal(body.Data, audio) {
		t.Fatalf("audio packet %v with %d bytes", body.Type, len(body.Data))
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), writeAll(t, pages)) {
		t.Fatal("WriteTo does not reproduce the input")
	}
}

func TestCollect(t *testing.T) {
	tf := newTestFile(t)
	file, err := Collect(tf.bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Packets) != 8 {
		t.Fatalf("got %d packets", len(file.Packets))
	}
}

func TestReadFileErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(t *testing.T, tf *testFile) []byte
		want   error
	}{
		{
			name: "headers only on first page",
			modify: func(t *testing.T, tf *testFile) []byte {
				tf.pages = tf.pages[:1]
				return tf.bytes()
			},
			want: ErrMissingHeaders,
		},
		{
			name: "second stream",
			modify: func(t *testing.T, tf *testFile) []byte {
				other := tf.pages[2].Clone()
				other.Serial++
				other.UpdateChecksum()
				tf.pages = append(tf.pages[:3], other)
				return tf.bytes()
			},
			want: ErrMultipleStreams,
		},
		{
			name: "corrupted page",
			modify: func(t *testing.T, tf *testFile) []byte {
				data := tf.bytes()
				data[len(data)-1] ^= 0xff
				return data
			},
			want: ogg.ErrBadChecksum,
		},
		{
			name: "truncated page",
			modify: func(t *testing.T, tf *testFile) []byte {
				data := tf.bytes()
				return data[:len(data)-3]
			},
			want: ogg.ErrTruncatedPage,
		},
		{
			name: "truncated packet",
			modify: func(t *testing.T, tf *testFile) []byte {
				tf.pages = tf.pages[:4]
				return tf.bytes()
			},
			want: ogg.ErrTruncatedPacket,
		},
		{
			name: "missing continuation",
			modify: func(t *testing.T, tf *testFile) []byte {
				tf.pages = append(tf.pages[:3], tf.pages[4:]...)
				return tf.bytes()
			},
			want: ogg.ErrContinuation,
		},
		{
			name: "sequence goes back",
			modify: func(t *testing.T, tf *testFile) []byte {
				tf.pages[5].Sequence = 1
				tf.pages[5].UpdateChecksum()
				return tf.bytes()
			},
			want: ogg.ErrSequence,
		},
		{
			name: "bad identification",
			modify: func(t *testing.T, tf *testFile) []byte {
				page, err := tf.pages[0].MapSegments(func(i int, seg []byte) []byte {
					seg[29] = 0
					return seg
				})
				if err != nil {
					t.Fatal(err)
				}
				tf.pages[0] = page
				return tf.bytes()
			},
			want: vorbis.ErrInvalidHeader,
		},
		{
			name: "audio where setup belongs",
			modify: func(t *testing.T, tf *testFile) []byte {
				page, err := tf.pages[1].ReplaceSegments(1, 1, tf.audio[0])
				if err != nil {
					t.Fatal(err)
				}
				tf.pages[1] = page
				return tf.bytes()
			},
			want: vorbis.ErrInvalidHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.modify(t, newTestFile(t))
			file, err := ReadFile(context.Background(), bytes.NewReader(data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if file != nil {
				t.Fatal("got a file together with an error")
			}
		})
	}
}

func TestReadFileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadFile(ctx, bytes.NewReader(newTestFile(t).bytes()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDecoder(t *testing.T) {
	tf := newTestFile(t)

	d, err := NewDecoder(bytes.NewReader(tf.bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if d.Identification.SampleRate != 48000 || d.Comment.Vendor != testVendor || len(d.Setup.Floors) != 1 {
		t.Fatal("headers not decoded")
	}

	for i, want := range tf.audio {
		packet, err := d.NextPacket()
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if !bytes.Equal(packet.Data, want) {
			t.Fatalf("packet %d differs", i)
		}
	}
	if _, err := d.NextPacket(); err == nil {
		t.Fatal("NextPacket after the last packet returned no error")
	}
}

func TestDecoderErrors(t *testing.T) {
	tf := newTestFile(t)
	tf.pages = tf.pages[:1]
	if _, err := NewDecoder(bytes.NewReader(tf.bytes())); !errors.Is(err, ErrMissingHeaders) {
		t.Fatalf("err = %v, want ErrMissingHeaders", err)
	}

	tf = newTestFile(t)
	other := tf.pages[2].Clone()
	other.Serial++
	other.UpdateChecksum()
	tf.pages = append(tf.pages[:3], other)
	d, err := NewDecoder(bytes.NewReader(tf.bytes()))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := d.NextPacket(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := d.NextPacket(); !errors.Is(err, ErrMultipleStreams) {
		t.Fatalf("err = %v, want ErrMultipleStreams", err)
	}
}
