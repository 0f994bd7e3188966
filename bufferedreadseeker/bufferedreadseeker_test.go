package bufferedreadseeker_test

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"vorbisedit/bufferedreadseeker"
)

func TestBufferedReadSeeker(t *testing.T) {
	someBuf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	bufR := bufferedreadseeker.NewReaderSize(iotest.OneByteReader(bytes.NewReader(someBuf)), 4)

	got, err := io.ReadAll(bufR)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, someBuf) {
		t.Fatalf("read %v, want %v", got, someBuf)
	}
	if bufR.Len() != int64(len(someBuf)) {
		t.Fatalf("Len() = %d", bufR.Len())
	}
}

func TestBufferedReadSeekerSeek(t *testing.T) {
	someBuf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	bufR := bufferedreadseeker.NewReaderSize(bytes.NewReader(someBuf), 3)

	if off, err := bufR.Seek(10, io.SeekStart); err != nil || off != 10 {
		t.Fatalf("Seek(10, start) = %d, %v", off, err)
	}
	b := make([]byte, 2)
	if _, err := io.ReadFull(bufR, b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{11, 12}) {
		t.Fatalf("read %v at 10", b)
	}

	if off, err := bufR.Seek(-12, io.SeekCurrent); err != nil || off != 0 {
		t.Fatalf("Seek(-12, current) = %d, %v", off, err)
	}
	if _, err := io.ReadFull(bufR, b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{1, 2}) {
		t.Fatalf("read %v at 0", b)
	}

	size, err := bufR.Seek(0, io.SeekEnd)
	if err != nil {
		t.Fatal(err)
	}
	if size != 16 {
		t.Fatalf("Seek(0, end) = %d, want 16", size)
	}
	if n, err := bufR.Read(b); n != 0 || err != io.EOF {
		t.Fatalf("Read at end = %d, %v", n, err)
	}

	if _, err := bufR.Seek(-1, io.SeekStart); err == nil {
		t.Fatal("negative seek succeeded")
	}
	if off, err := bufR.Seek(100, io.SeekStart); err != nil || off != 100 {
		t.Fatalf("Seek past end = %d, %v", off, err)
	}
	if _, err := bufR.Read(b); err != io.EOF {
		t.Fatalf("Read past end err = %v", err)
	}
}
