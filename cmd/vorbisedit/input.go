package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"vorbisedit"
	"vorbisedit/bufferedreadseeker"
	"vorbisedit/filebufferedreadseeker"
	"vorbisedit/ogg"
)

// input is a seekable view of a file or of standard input.
type input struct {
	rs    io.ReadSeeker
	size  int64
	close func() error
}

// openInput opens name, or standard input for "-". Standard input is kept
// in memory unless spool is set, in which case it goes to a temporary file.
func openInput(name string, spool bool) (*input, error) {
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		return &input{rs: f, size: fi.Size(), close: f.Close}, nil
	}

	if spool {
		r, err := filebufferedreadseeker.NewReader(os.Stdin)
		if err != nil {
			return nil, err
		}
		return &input{rs: r, size: -1, close: r.Close}, nil
	}

	return &input{
		rs:    bufferedreadseeker.NewReader(os.Stdin),
		size:  -1,
		close: func() error { return nil },
	}, nil
}

// reader rewinds the input and wraps it in a progress bar.
func (in *input) reader(description string) (io.Reader, func(), error) {
	if _, err := in.rs.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}
	if noProgress {
		return in.rs, func() {}, nil
	}

	bar := progressbar.DefaultBytes(in.size, description)
	barReader := progressbar.NewReader(in.rs, bar)

	return &barReader, func() { _ = bar.Finish() }, nil
}

func (in *input) readFile(ctx context.Context) (*vorbisedit.File, error) {
	r, done, err := in.reader("reading")
	if err != nil {
		return nil, err
	}
	defer done()

	return vorbisedit.ReadFile(ctx, r)
}

// readPages reads every page without interpreting packets, for inputs that
// may carry junk in front of the Vorbis headers.
func (in *input) readPages(ctx context.Context) ([]*ogg.Page, error) {
	r, done, err := in.reader("reading")
	if err != nil {
		return nil, err
	}
	defer done()

	pd := ogg.NewPageDecoder(r)
	var pages []*ogg.Page
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := pd.NextPage()
		if errors.Is(err, io.EOF) {
			return pages, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read page at offset %d: %w", pd.Offset(), err)
		}
		pages = append(pages, page)
	}
}

// writePages writes pages to name, or to standard output for "-".
func writePages(name string, pages []*ogg.Page) error {
	if name == "" {
		return errors.New("missing -o")
	}
	if name == "-" {
		_, err := vorbisedit.WritePages(os.Stdout, pages)
		return err
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := vorbisedit.WritePages(f, pages); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
