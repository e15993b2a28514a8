package page

import (
	"io"

	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/errs"
)

// DefaultPageBytes is the default target page byte size.
const DefaultPageBytes = 64 * 1024

// pageSink adapts a pool Page to io.ByteWriter, so the bit writer can
// append directly into pool-managed memory without an intermediate
// copy.
type pageSink struct {
	page *bufpool.Page
}

func (s *pageSink) WriteByte(b byte) error {
	if !s.page.Append([]byte{b}) {
		return errs.CapacityErrorf("page payload exceeds page capacity %d", s.page.Cap())
	}
	return nil
}

// Writer turns a pushed stream of values into a sequence of Encoded
// Pages written to sink. bitWidth must already be known (the Column
// Writer determines it from the maximum ZigZag code seen across the
// whole column before constructing a Writer).
type Writer[T bitpack.Word] struct {
	sink      io.Writer
	pool      *bufpool.Pool
	pageBytes int
	bitWidth  int
	perPage   int

	cur *pageState[T]

	PagesWritten int
	BytesWritten int64
}

type pageState[T bitpack.Word] struct {
	page       *bufpool.Page
	bw         *bitpack.Writer
	count      uint64
	min, max   T
	haveMinMax bool
}

// NewWriter constructs a page writer. pageBytes must be at least
// HeaderSize+1; bitWidth is clamped to T's bit count.
func NewWriter[T bitpack.Word](sink io.Writer, pool *bufpool.Pool, pageBytes int, bitWidth int) (*Writer[T], error) {
	if pageBytes < HeaderSize+1 {
		return nil, errs.InvalidDataf("page_byte_size %d must be >= %d", pageBytes, HeaderSize+1)
	}
	bitWidth = bitpack.ClampWidth[T](bitWidth)
	perPage := ((pageBytes - HeaderSize) * 8) / bitWidth
	if perPage < 1 {
		perPage = 1
	}
	return &Writer[T]{
		sink:      sink,
		pool:      pool,
		pageBytes: pageBytes,
		bitWidth:  bitWidth,
		perPage:   perPage,
	}, nil
}

func (w *Writer[T]) startPage() *pageState[T] {
	pg := w.pool.Get(w.pageBytes)
	pg.SetLen(HeaderSize)
	return &pageState[T]{page: pg, bw: bitpack.NewWriter(&pageSink{page: pg})}
}

// Push encodes and buffers one value, flushing a full page to sink as
// soon as perPage values have accumulated.
func (w *Writer[T]) Push(v T) error {
	if w.cur == nil {
		w.cur = w.startPage()
	}
	code := bitpack.Encode(v)
	if err := w.cur.bw.WriteBits(code, w.bitWidth); err != nil {
		return err
	}
	if !w.cur.haveMinMax || v < w.cur.min {
		w.cur.min = v
	}
	if !w.cur.haveMinMax || v > w.cur.max {
		w.cur.max = v
	}
	w.cur.haveMinMax = true
	w.cur.count++

	if int(w.cur.count) >= w.perPage {
		return w.flushCurrent()
	}
	return nil
}

// Close flushes any partial trailing page (which may be short).
func (w *Writer[T]) Close() error {
	return w.flushCurrent()
}

func (w *Writer[T]) flushCurrent() error {
	if w.cur == nil || w.cur.count == 0 {
		if w.cur != nil {
			w.cur.page.Release()
			w.cur = nil
		}
		return nil
	}
	if err := w.cur.bw.Flush(); err != nil {
		return err
	}

	payloadBytes := len(w.cur.page.Bytes()) - HeaderSize
	hdr := Header[T]{
		BitWidth:     uint8(w.bitWidth),
		Count:        w.cur.count,
		Min:          w.cur.min,
		Max:          w.cur.max,
		PayloadBytes: uint64(payloadBytes),
	}
	copy(w.cur.page.Bytes()[0:HeaderSize], hdr.Marshal())

	n, err := w.sink.Write(w.cur.page.Bytes())
	w.cur.page.Release()
	w.cur = nil
	if err != nil {
		// Sink failures are propagated verbatim, per the IoError
		// contract: the core never reinterprets the underlying cause.
		return err
	}
	w.PagesWritten++
	w.BytesWritten += int64(n)
	return nil
}
