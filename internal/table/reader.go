package table

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/rpcpool/colbits/internal/errs"
)

// DB is a read handle over a Table File.
type DB[T Key] struct {
	src        io.ReaderAt
	numBuckets uint64
	prefetch   bool
}

// Open reads a Table File's header and prepares it for Query.
func Open[T Key](src io.ReaderAt) (*DB[T], error) {
	var buf [HeaderSize]byte
	n, err := src.ReadAt(buf[:], 0)
	if n < HeaderSize {
		return nil, err
	}
	var hdr header
	if err := hdr.unmarshal(buf[:]); err != nil {
		return nil, err
	}
	return &DB[T]{src: src, numBuckets: hdr.NumBuckets}, nil
}

// Prefetch toggles whole-bucket prefetching: a Query reads an entire
// bucket's entry array in one ReadAt instead of scanning incrementally.
// Useful against high-latency backing stores.
func (db *DB[T]) Prefetch(yes bool) {
	db.prefetch = yes
}

// entryRow is one decoded bucket entry: payload offset, id and size.
type entryRow[T Key] struct {
	id     T
	offset uint64
	size   uint32
}

func (db *DB[T]) bucketDir(bucket uint64) (offset uint64, count uint32, err error) {
	if bucket >= db.numBuckets {
		return 0, 0, errs.InvalidDataf("bucket index %d out of range for %d buckets", bucket, db.numBuckets)
	}
	var buf [DirEntrySize]byte
	at := int64(HeaderSize) + int64(bucket)*DirEntrySize
	n, rerr := db.src.ReadAt(buf[:], at)
	if n < DirEntrySize {
		return 0, 0, errs.UnexpectedEoff("short directory entry at bucket %d: %v", bucket, rerr)
	}
	offset = binary.LittleEndian.Uint64(buf[0:8])
	count = binary.LittleEndian.Uint32(buf[8:12])
	return offset, count, nil
}

func (db *DB[T]) loadBucketEntries(bucketOffset uint64, count uint32) ([]entryRow[T], error) {
	stride := entryStride[T]()
	buf := make([]byte, int(count)*stride)
	if len(buf) > 0 {
		n, err := db.src.ReadAt(buf, int64(bucketOffset))
		if n < len(buf) {
			return nil, errs.UnexpectedEoff("short bucket entry array: %v", err)
		}
	}
	entries := make([]entryRow[T], count)
	for i := range entries {
		row := buf[i*stride : (i+1)*stride]
		kw := keyWidth[T]()
		entries[i] = entryRow[T]{
			offset: binary.LittleEndian.Uint64(row[0:8]),
			id:     getKey[T](row[8 : 8+kw]),
			size:   binary.LittleEndian.Uint32(row[8+kw : stride]),
		}
	}
	return entries, nil
}

// Query looks up id and returns its payload bytes, or errs.NotFound if
// absent from its bucket.
func (db *DB[T]) Query(id T) ([]byte, error) {
	bucket := bucketFor(id, db.numBuckets)
	bucketOffset, count, err := db.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errs.NotFoundf("id %v not found: empty bucket %d", id, bucket)
	}

	load, err := db.entryLoader(bucketOffset, count)
	if err != nil {
		return nil, err
	}

	var sErr error
	idx := sort.Search(int(count), func(i int) bool {
		e, err := load(i)
		if err != nil {
			sErr = err
			return true
		}
		return e.id >= id
	})
	if sErr != nil {
		return nil, sErr
	}
	if idx >= int(count) {
		return nil, errs.NotFoundf("id %v not found in bucket %d", id, bucket)
	}
	e, err := load(idx)
	if err != nil {
		return nil, err
	}
	if e.id != id {
		return nil, errs.NotFoundf("id %v not found in bucket %d", id, bucket)
	}

	payload := make([]byte, e.size)
	n, rerr := db.src.ReadAt(payload, int64(e.offset))
	if n < len(payload) {
		return nil, errs.UnexpectedEoff("short payload read for id %v: %v", id, rerr)
	}
	return payload, nil
}

// entryLoader returns a function loading the i-th entry of a bucket by
// index. With prefetch on, the whole bucket is read in one ReadAt and
// indexed from memory; otherwise each call issues its own ReadAt, so a
// binary search only ever touches O(log count) entries.
func (db *DB[T]) entryLoader(bucketOffset uint64, count uint32) (func(i int) (entryRow[T], error), error) {
	if db.prefetch {
		entries, err := db.loadBucketEntries(bucketOffset, count)
		if err != nil {
			return nil, err
		}
		return func(i int) (entryRow[T], error) { return entries[i], nil }, nil
	}

	stride := entryStride[T]()
	kw := keyWidth[T]()
	return func(i int) (entryRow[T], error) {
		buf := make([]byte, stride)
		n, err := db.src.ReadAt(buf, int64(bucketOffset)+int64(i)*int64(stride))
		if n < stride {
			return entryRow[T]{}, errs.UnexpectedEoff("short bucket entry %d: %v", i, err)
		}
		return entryRow[T]{
			offset: binary.LittleEndian.Uint64(buf[0:8]),
			id:     getKey[T](buf[8 : 8+kw]),
			size:   binary.LittleEndian.Uint32(buf[8+kw : stride]),
		}, nil
	}, nil
}

// All decodes every entry across every bucket, used by Compact to merge
// table files. Order is bucket-ascending, id-ascending within a bucket.
func (db *DB[T]) All() ([]struct {
	ID      T
	Payload []byte
}, error) {
	var out []struct {
		ID      T
		Payload []byte
	}
	for b := uint64(0); b < db.numBuckets; b++ {
		offset, count, err := db.bucketDir(b)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		entries, err := db.loadBucketEntries(offset, count)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			payload := make([]byte, e.size)
			n, rerr := db.src.ReadAt(payload, int64(e.offset))
			if n < len(payload) {
				return nil, errs.UnexpectedEoff("short payload read for id %v: %v", e.id, rerr)
			}
			out = append(out, struct {
				ID      T
				Payload []byte
			}{ID: e.id, Payload: payload})
		}
	}
	return out, nil
}
