package index

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/page"
	"github.com/rpcpool/colbits/internal/table"
)

// DocIndex is a document token index: for every distinct lowercased
// token seen across the indexed texts, it records the sorted, deduped
// set of row positions whose text contained that token.
type DocIndex struct {
	pool     *bufpool.Pool
	postings map[uint64][]uint32
	seen     map[uint64]map[uint32]bool
	order    []uint64
}

// NewDocIndex constructs an empty document index. pool supplies the
// pool pages used to bit-pack each token's position list.
func NewDocIndex(pool *bufpool.Pool) *DocIndex {
	return &DocIndex{
		pool:     pool,
		postings: make(map[uint64][]uint32),
		seen:     make(map[uint64]map[uint32]bool),
	}
}

// Add tokenizes text on whitespace and records row against every
// distinct token it contains.
func (d *DocIndex) Add(text string, row uint32) {
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := xxhash.Sum64String(tok)
		rows, ok := d.seen[h]
		if !ok {
			rows = make(map[uint32]bool)
			d.seen[h] = rows
			d.order = append(d.order, h)
		}
		if !rows[row] {
			rows[row] = true
			d.postings[h] = append(d.postings[h], row)
		}
	}
}

// Flush bit-packs each token's position list as a Column File blob
// (reusing the page format rather than a bespoke layout; one page
// unless the list exceeds a default-sized page's capacity) and
// writes them to dst as a Table File keyed by the token's xxhash.
func (d *DocIndex) Flush(dst io.Writer, tmpDir string) error {
	b, err := table.NewBuilder[uint64](tmpDir)
	if err != nil {
		return err
	}
	for _, h := range d.order {
		positions := d.postings[h]
		sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
		blob, err := encodePositions(d.pool, positions)
		if err != nil {
			return err
		}
		if err := b.Put(h, blob); err != nil {
			return err
		}
	}
	return b.Close(dst)
}

// QueryDocIndex returns the sorted row positions recorded for token in
// a flushed document Table File.
func QueryDocIndex(src io.ReaderAt, pool *bufpool.Pool, token string) ([]uint32, error) {
	db, err := table.Open[uint64](src)
	if err != nil {
		return nil, err
	}
	blob, err := db.Query(xxhash.Sum64String(strings.ToLower(token)))
	if err != nil {
		return nil, err
	}
	return decodePositions(pool, blob)
}

func encodePositions(pool *bufpool.Pool, positions []uint32) ([]byte, error) {
	width := 1
	for _, p := range positions {
		if w := bitpack.BitWidth(p); w > width {
			width = w
		}
	}
	var buf bytes.Buffer
	w, err := page.NewWriter[uint32](&buf, pool, page.DefaultPageBytes, width)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		if err := w.Push(p); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePositions(pool *bufpool.Pool, blob []byte) ([]uint32, error) {
	rd := page.NewReader[uint32](bytes.NewReader(blob), pool, nil)
	var out []uint32
	for {
		v, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
