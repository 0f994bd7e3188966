package filebufferedreadseeker_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"vorbisedit/filebufferedreadseeker"
)

func TestFileBufferedReadSeeker(t *testing.T) {
	someBuf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	bufR, err := filebufferedreadseeker.NewReaderDir(bytes.NewReader(someBuf), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer bufR.Close()

	var got []byte
	for {
		buf := make([]byte, 7)
		n, err := bufR.Read(buf)
		got = append(got, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(got, someBuf) {
		t.Fatalf("read %v, want %v", got, someBuf)
	}
}

func TestFileBufferedReadSeekerSeek(t *testing.T) {
	someBuf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	bufR, err := filebufferedreadseeker.NewReaderDir(bytes.NewReader(someBuf), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer bufR.Close()

	buf := make([]byte, 7)
	if _, err := io.ReadFull(bufR, buf); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(bufR, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, someBuf[7:14]) {
		t.Fatalf("second read %v, want %v", buf, someBuf[7:14])
	}

	if off, err := bufR.Seek(0, io.SeekStart); err != nil || off != 0 {
		t.Fatalf("Seek(0, start) = %d, %v", off, err)
	}
	if _, err := io.ReadFull(bufR, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, someBuf[:7]) {
		t.Fatalf("read after rewind %v, want %v", buf, someBuf[:7])
	}

	end, err := bufR.Seek(-2, io.SeekEnd)
	if err != nil {
		t.Fatal(err)
	}
	if end != 14 {
		t.Fatalf("Seek(-2, end) = %d, want 14", end)
	}
	tail, err := io.ReadAll(bufR)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tail, []byte{15, 16}) {
		t.Fatalf("tail %v", tail)
	}
}

func TestFileBufferedReadSeekerClose(t *testing.T) {
	bufR, err := filebufferedreadseeker.NewReaderDir(bytes.NewReader([]byte("OggS")), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadAll(bufR); err != nil {
		t.Fatal(err)
	}
	name := bufR.Name()
	if err := bufR.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Fatalf("spool file %s still exists: %v", name, err)
	}
}
