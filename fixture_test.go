package vorbisedit

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"testing"

	"vorbisedit/ogg"
	"vorbisedit/ogg/vorbis"
)

const (
	testSerial = 0xbeef
	testVendor = "Xiph.Org libVorbis I 20200704 (Reducing Environment)"
)

var testComments = map[string][]string{
	"TITLE":  {"Sine"},
	"ARTIST": {"Nobody"},
}

// testSetup is a mono setup header with one codebook and one of each
// floor, residue, mapping and mode.
func testSetup() []byte {
	w := &vorbis.BitWriter{}
	w.WriteUintN(8, uint32(vorbis.SetupPacket))
	w.WriteBytes([]byte("vorbis"))

	w.WriteUintN(8, 0)
	w.WriteUintN(24, 0x564342)
	w.WriteUintN(16, 1)
	w.WriteUintN(24, 2)
	w.WriteBool(false)
	w.WriteBool(false)
	w.WriteUintN(5, 0)
	w.WriteUintN(5, 0)
	w.WriteUintN(4, 0)

	// time
	w.WriteUintN(6, 0)
	w.WriteUintN(16, 0)

	// floor 1 without partitions
	w.WriteUintN(6, 0)
	w.WriteUintN(16, 1)
	w.WriteUintN(5, 0)
	w.WriteUintN(2, 0)
	w.WriteUintN(4, 4)

	// residue 0
	w.WriteUintN(6, 0)
	w.WriteUintN(16, 0)
	w.WriteUintN(24, 0)
	w.WriteUintN(24, 0)
	w.WriteUintN(24, 0)
	w.WriteUintN(6, 0)
	w.WriteUintN(8, 0)
	w.WriteUintN(3, 0)
	w.WriteBool(false)

	// mapping
	w.WriteUintN(6, 0)
	w.WriteUintN(16, 0)
	w.WriteBool(false)
	w.WriteBool(false)
	w.WriteUintN(2, 0)
	w.WriteUintN(8, 0)
	w.WriteUintN(8, 0)
	w.WriteUintN(8, 0)

	// mode
	w.WriteUintN(6, 0)
	w.WriteBool(false)
	w.WriteUintN(16, 0)
	w.WriteUintN(16, 0)
	w.WriteUintN(8, 0)

	w.WriteBool(true)
	return w.Bytes()
}

type testFile struct {
	pages []*ogg.Page
	audio [][]byte
}

func (f *testFile) bytes() []byte {
	var buf bytes.Buffer
	if _, err := WritePages(&buf, f.pages); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// newTestFile builds six pages: the identification header, the comment and
// setup headers, then five audio packets of which the third spans pages 3
// and 4.
func newTestFile(t *testing.T) *testFile {
	t.Helper()

	id, err := (&vorbis.IdentificationHeader{
		Channels:       1,
		SampleRate:     48000,
		BitrateNominal: 96000,
		Blocksize0:     256,
		Blocksize1:     2048,
		Framing:        true,
	}).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	comment, err := vorbis.NewCommentHeader(testVendor, testComments).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(7))
	audio := make([][]byte, 5)
	for i, size := range []int{100, 300, 600, 40, 20} {
		audio[i] = make([]byte, size)
		rng.Read(audio[i])
		audio[i][0] &^= 1
	}

	f := &testFile{audio: audio}
	add := func(page *ogg.Page, err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		f.pages = append(f.pages, page)
	}
	add(ogg.NewPage(ogg.BeginningOfStreamFlag, 0, testSerial, 0, id))
	add(ogg.NewPage(0, 0, testSerial, 1, comment, testSetup()))
	add(ogg.NewPage(0, 1024, testSerial, 2, audio[0], audio[1]))

	open := &ogg.Page{
		GranulePosition: ogg.NoGranulePosition,
		Serial:          testSerial,
		Sequence:        3,
		SegmentSizes:    []uint8{255, 255},
		Payload:         bytes.Clone(audio[2][:510]),
	}
	open.UpdateChecksum()
	f.pages = append(f.pages, open)

	tail := &ogg.Page{
		HeaderType:      ogg.ContinuationFlag,
		GranulePosition: 2048,
		Serial:          testSerial,
		Sequence:        4,
		SegmentSizes:    []uint8{90, 40},
		Payload:         append(bytes.Clone(audio[2][510:]), audio[3]...),
	}
	tail.UpdateChecksum()
	f.pages = append(f.pages, tail)

	add(ogg.NewPage(ogg.EndOfStreamFlag, 3072, testSerial, 5, audio[4]))

	return f
}

func clonePages(pages []*ogg.Page) []*ogg.Page {
	out := make([]*ogg.Page, len(pages))
	for i, page := range pages {
		out[i] = page.Clone()
	}
	return out
}

func assertSamePages(t *testing.T, got, want []*ogg.Page) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d pages, want %d", len(got), len(want))
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Fatalf("page %d:\n got %v\nwant %v", i, got[i], want[i])
		}
	}
}

// assertIntact checks contiguous sequence numbers from 0 and valid checksums.
func assertIntact(t *testing.T, pages []*ogg.Page) {
	t.Helper()
	for i, page := range pages {
		if page.Sequence != uint32(i) {
			t.Fatalf("page %d has sequence %d", i, page.Sequence)
		}
		if !page.ChecksumValid() {
			t.Fatalf("page %d has a stale checksum", i)
		}
		if err := page.ValidateSize(); err != nil {
			t.Fatal(err)
		}
	}
}

func writeAll(t *testing.T, pages []*ogg.Page) []byte {
	t.Helper()
	var buf bytes.Buffer
	if _, err := WritePages(&buf, pages); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pagesReader(pages []*ogg.Page) io.Reader {
	readers := make([]io.Reader, len(pages))
	for i, page := range pages {
		readers[i] = bytes.NewReader(page.Bytes())
	}
	return io.MultiReader(readers...)
}

func contextForTest(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
