package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/jfreymuth/oggvorbis"

	"vorbisedit"
	"vorbisedit/ogg/vorbis"
)

// parseArgs parses flags and returns the single input file argument.
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one input file, got %d", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}

func runInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	spool := fs.Bool("spool", false, "spool standard input to a temporary file")
	name, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	in, err := openInput(name, *spool)
	if err != nil {
		return err
	}
	defer in.close()

	file, err := in.readFile(ctx)
	if err != nil {
		return err
	}

	id := file.Identification()
	setup := file.Setup()
	floor0, floor1 := setup.FloorCounts()

	fmt.Printf("serial:       %#08x\n", file.Serial)
	fmt.Printf("pages:        %d\n", len(file.Pages))
	fmt.Printf("packets:      %d (%d audio)\n", len(file.Packets), len(file.Packets)-3)
	fmt.Printf("channels:     %d\n", id.Channels)
	fmt.Printf("sample rate:  %d Hz\n", id.SampleRate)
	fmt.Printf("bitrate:      max %d, nominal %d, min %d\n", id.BitrateMaximum, id.BitrateNominal, id.BitrateMinimum)
	fmt.Printf("block sizes:  %d/%d\n", id.Blocksize0, id.Blocksize1)
	fmt.Printf("setup:        %d codebooks, %d floors (%d type 0, %d type 1), %d residues, %d mappings, %d modes\n",
		len(setup.Codebooks), len(setup.Floors), floor0, floor1, len(setup.Residues), len(setup.Mappings), len(setup.Modes))

	comment := file.Comment()
	fmt.Printf("vendor:       %s\n", comment.Vendor)
	for _, c := range comment.Comments {
		fmt.Printf("comment:      %s\n", c)
	}

	if _, err := in.rs.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if ov, err := oggvorbis.NewReader(in.rs); err != nil {
		fmt.Printf("duration:     unknown (%v)\n", err)
	} else if samples := ov.Length(); samples > 0 {
		duration := time.Duration(samples) * time.Second / time.Duration(ov.SampleRate())
		fmt.Printf("duration:     %v (%d samples)\n", duration.Round(time.Millisecond), samples)
	}

	if _, err := in.rs.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if m, err := tag.ReadOGGTags(in.rs); err != nil {
		fmt.Printf("tags:         unreadable by tag readers (%v)\n", err)
	} else {
		fmt.Printf("tags:         title %q, artist %q, album %q\n", m.Title(), m.Artist(), m.Album())
	}

	return nil
}

func runPackets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("packets", flag.ExitOnError)
	spool := fs.Bool("spool", false, "spool standard input to a temporary file")
	name, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	in, err := openInput(name, *spool)
	if err != nil {
		return err
	}
	defer in.close()

	r, done, err := in.reader("reading")
	if err != nil {
		return err
	}
	defer done()

	d, err := vorbisedit.NewDecoder(r)
	if err != nil {
		return err
	}
	blocks := [2]int{d.Identification.Blocksize0, d.Identification.Blocksize1}
	modeBits := vorbis.Ilog(uint32(len(d.Setup.Modes) - 1))

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		packet, err := d.NextPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		block := "-"
		if mode, ok := packetMode(packet.Data, modeBits); ok && mode < len(d.Setup.Modes) {
			size := blocks[0]
			if d.Setup.Modes[mode].Blockflag {
				size = blocks[1]
			}
			block = fmt.Sprint(size)
		}
		fmt.Printf("%6d  page %5d  %6d bytes  block %5s  granule %d\n", i, packet.LastPage, len(packet.Data), block, packet.GranulePosition)
	}
}

// packetMode reads the mode number of an audio packet: a zero type bit
// followed by ilog(modes-1) bits.
func packetMode(data []byte, bits int) (int, bool) {
	if len(data) == 0 || data[0]&1 != 0 || bits > 7 {
		return 0, false
	}
	return int(data[0]>>1) & (1<<bits - 1), true
}

// tagFlag collects repeated TAG=VALUE flags.
type tagFlag []string

func (f *tagFlag) String() string { return strings.Join(*f, ",") }

func (f *tagFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func runComments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	vendor := fs.String("vendor", "", "new vendor string (default: keep)")
	out := fs.String("o", "", "output file, - for standard output")
	clearAll := fs.Bool("clear", false, "drop all existing comments")
	var set, del tagFlag
	fs.Var(&set, "set", "TAG=VALUE to set; repeat a tag for several values")
	fs.Var(&del, "delete", "TAG to remove")
	name, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	in, err := openInput(name, false)
	if err != nil {
		return err
	}
	defer in.close()

	file, err := in.readFile(ctx)
	if err != nil {
		return err
	}

	fields := map[string][]string{}
	if !*clearAll {
		fields = file.Comment().Fields()
	}
	for _, t := range del {
		delete(fields, strings.ToUpper(t))
	}
	replaced := map[string]bool{}
	for _, kv := range set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("-set %q: want TAG=VALUE", kv)
		}
		key = strings.ToUpper(key)
		if !replaced[key] {
			fields[key] = nil
			replaced[key] = true
		}
		fields[key] = append(fields[key], value)
	}

	pages, err := vorbisedit.UpdateComments(file.Pages, *vendor, fields)
	if err != nil {
		return err
	}
	return writePages(*out, pages)
}

func runTrim(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	start := fs.Int("start", 0, "index of the first page to remove")
	count := fs.Int("count", 1, "number of pages to remove")
	out := fs.String("o", "", "output file, - for standard output")
	name, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	in, err := openInput(name, false)
	if err != nil {
		return err
	}
	defer in.close()

	pages, err := in.readPages(ctx)
	if err != nil {
		return err
	}
	pages, err = vorbisedit.Trim(pages, *start, *count)
	if err != nil {
		return err
	}
	return writePages(*out, pages)
}

func runStrip(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("strip", flag.ExitOnError)
	out := fs.String("o", "", "output file, - for standard output")
	name, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	in, err := openInput(name, false)
	if err != nil {
		return err
	}
	defer in.close()

	pages, err := in.readPages(ctx)
	if err != nil {
		return err
	}
	before := len(pages)
	pages, err = vorbisedit.TrimBeforeHeaders(pages)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "dropped %d pages\n", before-len(pages))

	return writePages(*out, pages)
}
