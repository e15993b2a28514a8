package bitpack

import (
	"errors"
	"io"
)

// Reader unpacks values of arbitrary bit width (up to 64) from a byte
// stream, LSB-first within each byte, the inverse of Writer. It reads
// bytes lazily and holds up to 64 staged bits.
type Reader struct {
	src   io.ByteReader
	stage uint64
	nbits int
}

// NewReader returns a bit reader pulling bytes from src.
func NewReader(src io.ByteReader) *Reader {
	return &Reader{src: src}
}

// ReadBits reads the next width bits and returns them in the low bits
// of the result. A clean EOF with zero bits consumed so far is returned
// as io.EOF; any EOF after partial progress on this value is returned
// as io.ErrUnexpectedEOF, matching the low-level primitive's contract
// that higher iterators convert clean between-value EOF into
// end-of-stream themselves.
func (r *Reader) ReadBits(width int) (uint64, error) {
	var result uint64
	var got int

	for got < width {
		if r.nbits == 0 {
			b, err := r.src.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) && got == 0 {
					return 0, io.EOF
				}
				return 0, io.ErrUnexpectedEOF
			}
			r.stage = uint64(b)
			r.nbits = 8
		}

		take := width - got
		if take > r.nbits {
			take = r.nbits
		}
		mask := (uint64(1) << take) - 1
		result |= (r.stage & mask) << got

		r.stage >>= take
		r.nbits -= take
		got += take
	}

	return result, nil
}
