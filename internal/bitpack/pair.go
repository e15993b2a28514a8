package bitpack

// PairWriter writes (A, B) tuples with independently chosen bit widths,
// used for spatial coordinates or other small-arity tuples that share a
// page but not a width.
type PairWriter struct {
	w      *Writer
	widthA int
	widthB int
}

// NewPairWriter returns a pair writer with fixed per-field widths.
func NewPairWriter(w *Writer, widthA, widthB int) *PairWriter {
	return &PairWriter{w: w, widthA: widthA, widthB: widthB}
}

// WritePair writes one (a, b) tuple as two consecutive bit-packed
// fields.
func (p *PairWriter) WritePair(a, b uint64) error {
	if err := p.w.WriteBits(a, p.widthA); err != nil {
		return err
	}
	return p.w.WriteBits(b, p.widthB)
}

// Flush flushes the underlying bit writer.
func (p *PairWriter) Flush() error {
	return p.w.Flush()
}

// PairReader reads (A, B) tuples written by PairWriter.
type PairReader struct {
	r      *Reader
	widthA int
	widthB int
}

// NewPairReader returns a pair reader with fixed per-field widths.
func NewPairReader(r *Reader, widthA, widthB int) *PairReader {
	return &PairReader{r: r, widthA: widthA, widthB: widthB}
}

// ReadPair reads the next (a, b) tuple.
func (p *PairReader) ReadPair() (a, b uint64, err error) {
	a, err = p.r.ReadBits(p.widthA)
	if err != nil {
		return 0, 0, err
	}
	b, err = p.r.ReadBits(p.widthB)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
