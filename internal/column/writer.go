// Package column implements the streaming Column Writer: a two-pass
// spill-then-repack encoder that buffers raw values to a temp sink,
// then on close derives the column's bit width from the maximum
// encoded value seen and replays the spill through the Page Writer.
package column

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/page"
)

var log = logging.Logger("colbits/column")

// Writer buffers pushed values to a spill file and, on Close, replays
// them through a page.Writer once their bit width is known. Operations
// are serialized by an internal lock: a Writer may be shared across
// producers, but per-column throughput is bounded by it.
type Writer[T bitpack.Word] struct {
	mu sync.Mutex

	sink      io.Writer
	pool      *bufpool.Pool
	pageBytes int

	spill     *os.File
	spillPath string
	spillBuf  *bufpool.Page

	count      uint64
	min, max   T
	maxCode    uint64
	haveValues bool

	closed       bool
	PagesWritten int
}

const spillBufferBytes = 64 * 1024

// NewWriter opens a fresh spill file under tmpDir (the OS default temp
// directory if empty) and returns a Writer that will emit pages to
// sink on Close.
func NewWriter[T bitpack.Word](sink io.Writer, pool *bufpool.Pool, pageBytes int, tmpDir string) (*Writer[T], error) {
	pattern := "colbits-column-" + uuid.New().String() + "-*.spill"
	f, err := os.CreateTemp(tmpDir, pattern)
	if err != nil {
		return nil, err
	}
	return &Writer[T]{
		sink:      sink,
		pool:      pool,
		pageBytes: pageBytes,
		spill:     f,
		spillPath: f.Name(),
		spillBuf:  pool.Get(spillBufferBytes),
	}, nil
}

func elemWidth[T bitpack.Word]() int {
	return bitpack.BitsOf[T]() / 8
}

func putRawLE(buf []byte, u uint64) {
	for i := range buf {
		buf[i] = byte(u >> (8 * i))
	}
}

func getRawLE(buf []byte) uint64 {
	var u uint64
	for i, b := range buf {
		u |= uint64(b) << (8 * i)
	}
	return u
}

// Push appends v to the spill buffer and updates the running
// min/max/maxCode/count. It does not touch the final sink.
func (w *Writer[T]) Push(v T) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return io.ErrClosedPipe
	}

	ew := elemWidth[T]()
	var raw [8]byte
	putRawLE(raw[:ew], bitpack.RawBits(v))
	if !w.spillBuf.Append(raw[:ew]) {
		if err := w.flushSpillBuf(); err != nil {
			return err
		}
		if !w.spillBuf.Append(raw[:ew]) {
			return io.ErrShortWrite
		}
	}

	if !w.haveValues || v < w.min {
		w.min = v
	}
	if !w.haveValues || v > w.max {
		w.max = v
	}
	w.haveValues = true
	w.count++

	if code := bitpack.Encode(v); code > w.maxCode {
		w.maxCode = code
	}
	return nil
}

func (w *Writer[T]) flushSpillBuf() error {
	if len(w.spillBuf.Bytes()) > 0 {
		if _, err := w.spill.Write(w.spillBuf.Bytes()); err != nil {
			return err
		}
		w.spillBuf.SetLen(0)
	}
	return nil
}

// Close replays the spilled raw values through a page.Writer sized to
// the bit width derived from the maximum encoded value, then removes
// the temp spill file. Closing a Writer with zero pushed values is a
// no-op that still discards the (empty) spill file.
func (w *Writer[T]) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	defer func() {
		w.spillBuf.Release()
		w.spill.Close()
		os.Remove(w.spillPath)
	}()

	if err := w.flushSpillBuf(); err != nil {
		return err
	}
	if w.count == 0 {
		return nil
	}

	width := bitpack.CodeWidth(w.maxCode)
	pw, err := page.NewWriter[T](w.sink, w.pool, w.pageBytes, width)
	if err != nil {
		return err
	}

	if _, err := w.spill.Seek(0, io.SeekStart); err != nil {
		return err
	}
	ew := elemWidth[T]()
	r := bufio.NewReaderSize(w.spill, spillBufferBytes)
	raw := make([]byte, ew)
	for i := uint64(0); i < w.count; i++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return err
		}
		v := bitpack.FromRawBits[T](getRawLE(raw))
		if err := pw.Push(v); err != nil {
			return err
		}
	}
	if err := pw.Close(); err != nil {
		return err
	}
	w.PagesWritten = pw.PagesWritten

	log.Debugw("column closed", "count", w.count, "bit_width", width, "pages", pw.PagesWritten)
	return nil
}

// Count returns the number of values pushed so far.
func (w *Writer[T]) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// MinMax returns the running minimum and maximum of pushed values.
// Only meaningful once at least one value has been pushed.
func (w *Writer[T]) MinMax() (min, max T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.min, w.max
}
