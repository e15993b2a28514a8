package page

import (
	"bytes"
	"io"

	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/errs"
)

// Predicate decides, from a page's header alone, whether its payload
// is worth decoding. It must be pure and cheap: no I/O, and it is
// always evaluated before any bytes of the payload are read.
type Predicate[T bitpack.Word] func(min, max T, count uint64, bitWidth uint8) bool

// AlwaysTrue is a Predicate that accepts every page, used when the
// caller wants an unfiltered scan.
func AlwaysTrue[T bitpack.Word](T, T, uint64, uint8) bool { return true }

// Reader iterates the values of a Column File, skipping pages the
// predicate rejects without decoding their payload. It implements the
// two-state machine from the page format design: NeedPage (no active
// page) and InPage (pulling values from a borrowed pool page).
type Reader[T bitpack.Word] struct {
	src       io.Reader
	pool      *bufpool.Pool
	predicate Predicate[T]

	page      *bufpool.Page
	br        *bitpack.Reader
	bitWidth  int
	remaining uint64
}

// NewReader constructs a reader pulling Encoded Pages from src. A nil
// predicate defaults to AlwaysTrue.
func NewReader[T bitpack.Word](src io.Reader, pool *bufpool.Pool, predicate Predicate[T]) *Reader[T] {
	if predicate == nil {
		predicate = AlwaysTrue[T]
	}
	return &Reader[T]{src: src, pool: pool, predicate: predicate}
}

// Next returns the next value in file order, or io.EOF once the column
// file is exhausted. A clean EOF at a page boundary is well-formed
// end-of-column and is not wrapped; any other failure is a typed error
// from the errs package.
func (r *Reader[T]) Next() (T, error) {
	var zero T
	for {
		if r.page != nil {
			if r.remaining > 0 {
				code, err := r.br.ReadBits(r.bitWidth)
				if err != nil {
					r.releasePage()
					return zero, errs.UnexpectedEoff("short read inside page payload: %v", err)
				}
				r.remaining--
				if r.remaining == 0 {
					r.releasePage()
				}
				return bitpack.Decode[T](code), nil
			}
			r.releasePage()
		}

		hdr, payloadLen, err := r.readHeader()
		if err != nil {
			if err == io.EOF {
				return zero, io.EOF
			}
			return zero, err
		}

		if !r.predicate(hdr.Min, hdr.Max, hdr.Count, hdr.BitWidth) {
			if err := discard(r.src, payloadLen); err != nil {
				return zero, errs.UnexpectedEoff("short read skipping page payload: %v", err)
			}
			continue
		}

		pg := r.pool.Get(maxInt(1, int(payloadLen)))
		pg.SetLen(int(payloadLen))
		if _, err := io.ReadFull(r.src, pg.Bytes()); err != nil {
			pg.Release()
			return zero, errs.UnexpectedEoff("short read inside page payload: %v", err)
		}
		r.page = pg
		r.br = bitpack.NewReader(bytes.NewReader(pg.Bytes()))
		r.bitWidth = int(hdr.BitWidth)
		r.remaining = hdr.Count

		if r.remaining == 0 {
			// A well-formed writer never emits a zero-count page, but
			// guard against looping forever on a malformed one.
			r.releasePage()
			continue
		}
	}
}

func (r *Reader[T]) readHeader() (Header[T], uint64, error) {
	var hdr Header[T]
	var buf [HeaderSize]byte
	n, err := io.ReadFull(r.src, buf[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return hdr, 0, io.EOF
		}
		return hdr, 0, errs.UnexpectedEoff("short page header: %v", err)
	}
	if err := hdr.Unmarshal(buf[:]); err != nil {
		return hdr, 0, err
	}
	return hdr, hdr.PayloadBytes, nil
}

func (r *Reader[T]) releasePage() {
	if r.page != nil {
		r.page.Release()
	}
	r.page = nil
	r.br = nil
	r.remaining = 0
}

func discard(src io.Reader, n uint64) error {
	_, err := io.CopyN(io.Discard, src, int64(n))
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
