package index

import (
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/rpcpool/colbits/internal/table"
)

// Categorical accumulates (value, row_position) pairs in memory, one
// Bitmap of row positions per distinct value, and flushes them to a
// Table File keyed by hash(value). keyBytes projects a value to the
// bytes hashed into its table key, letting callers index any
// comparable type without the package committing to one encoding.
type Categorical[T comparable] struct {
	keyBytes func(T) []byte
	postings map[T]*Bitmap
	order    []T
}

// NewCategorical constructs an empty categorical index.
func NewCategorical[T comparable](keyBytes func(T) []byte) *Categorical[T] {
	return &Categorical[T]{keyBytes: keyBytes, postings: make(map[T]*Bitmap)}
}

// Add records that value appears at row.
func (c *Categorical[T]) Add(value T, row uint32) {
	bm, ok := c.postings[value]
	if !ok {
		bm = NewBitmap()
		c.postings[value] = bm
		c.order = append(c.order, value)
	}
	bm.Set(row)
}

// Flush serializes every value's Bitmap and writes them to dst as a
// Table File keyed by xxhash.Sum64(keyBytes(value)).
func (c *Categorical[T]) Flush(dst io.Writer, tmpDir string) error {
	b, err := table.NewBuilder[uint64](tmpDir)
	if err != nil {
		return err
	}
	for _, v := range c.order {
		key := xxhash.Sum64(c.keyBytes(v))
		if err := b.Put(key, c.postings[v].Marshal()); err != nil {
			return err
		}
	}
	return b.Close(dst)
}

// QueryCategorical looks up the row positions recorded for value in a
// flushed categorical Table File.
func QueryCategorical[T any](src io.ReaderAt, keyBytes func(T) []byte, value T) (*Bitmap, error) {
	db, err := table.Open[uint64](src)
	if err != nil {
		return nil, err
	}
	payload, err := db.Query(xxhash.Sum64(keyBytes(value)))
	if err != nil {
		return nil, err
	}
	return UnmarshalBitmap(payload)
}
