package vorbis

// BitWriter packs bit fields in the order BitReader reads them.
type BitWriter struct {
	data  []byte
	nbits int
}

// WriteUintN appends the low n bits of v, n <= 32.
func (w *BitWriter) WriteUintN(n int, v uint32) {
	for i := 0; i < n; i++ {
		if w.nbits&7 == 0 {
			w.data = append(w.data, 0)
		}
		if v>>i&1 != 0 {
			w.data[w.nbits>>3] |= 1 << (w.nbits & 7)
		}
		w.nbits++
	}
}

func (w *BitWriter) WriteBool(b bool) {
	if b {
		w.WriteUintN(1, 1)
	} else {
		w.WriteUintN(1, 0)
	}
}

// WriteBytes pads to the next byte boundary and appends b.
func (w *BitWriter) WriteBytes(b []byte) {
	w.nbits = len(w.data) * 8
	w.data = append(w.data, b...)
	w.nbits += len(b) * 8
}

// Bytes returns the packed data; a partial last byte is zero padded.
func (w *BitWriter) Bytes() []byte {
	return w.data
}

// Len returns the number of bits written.
func (w *BitWriter) Len() int {
	return w.nbits
}
