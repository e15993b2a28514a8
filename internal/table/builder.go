package table

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("colbits/table")

// record is one payload accepted by the builder, addressable by one or
// more ids (multi-key entries share a single payload range).
type record[T Key] struct {
	ids    []T
	offset int64
	size   uint32
}

// Builder accumulates (ids, payload) pairs and, on Close, emits a
// complete Table File: header, directory, per-bucket entry arrays,
// then payload bytes. Payloads are staged to a temp spill file as they
// arrive, since num_buckets and entry offsets are only known once every
// record has been seen.
type Builder[T Key] struct {
	spill     *os.File
	spillPath string
	offset    int64
	records   []record[T]
	n         int // total id count across all records
	closed    bool
}

// NewBuilder opens a temp spill file under dir (the process default
// temp directory if dir is empty).
func NewBuilder[T Key](dir string) (*Builder[T], error) {
	pattern := "colbits-table-" + uuid.New().String() + "-*.spill"
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &Builder[T]{spill: f, spillPath: f.Name()}, nil
}

// Put stages payload under id.
func (b *Builder[T]) Put(id T, payload []byte) error {
	return b.PutMulti([]T{id}, payload)
}

// PutMulti stages one payload addressable by several ids (a multi-key
// entry): every id in ids resolves to the same payload bytes.
func (b *Builder[T]) PutMulti(ids []T, payload []byte) error {
	n, err := b.spill.Write(payload)
	if err != nil {
		return err
	}
	idsCopy := make([]T, len(ids))
	copy(idsCopy, ids)
	b.records = append(b.records, record[T]{ids: idsCopy, offset: b.offset, size: uint32(len(payload))})
	b.offset += int64(n)
	b.n += len(ids)
	return nil
}

type flatEntry[T Key] struct {
	id     T
	offset uint64
	size   uint32
}

// Close assembles and writes the final Table File to dst, then removes
// the temp spill file. The builder must not be reused afterward.
func (b *Builder[T]) Close(dst io.Writer) error {
	if b.closed {
		return nil
	}
	b.closed = true
	defer func() {
		b.spill.Close()
		os.Remove(b.spillPath)
	}()

	stride := entryStride[T]()
	numBuckets := numBucketsFor(b.n, stride)

	buckets := make([][]flatEntry[T], numBuckets)
	for _, rec := range b.records {
		for _, id := range rec.ids {
			bi := bucketFor(id, numBuckets)
			buckets[bi] = append(buckets[bi], flatEntry[T]{id: id, offset: uint64(rec.offset), size: rec.size})
		}
	}
	for i := range buckets {
		sort.Slice(buckets[i], func(a, c int) bool { return buckets[i][a].id < buckets[i][c].id })
	}

	entryRegionStart := int64(HeaderSize) + int64(numBuckets)*DirEntrySize
	bucketOffsets := make([]int64, numBuckets)
	running := entryRegionStart
	for i := range buckets {
		bucketOffsets[i] = running
		running += int64(len(buckets[i])) * int64(stride)
	}
	payloadsStart := running

	hdr := header{NumBuckets: numBuckets}
	if _, err := dst.Write(hdr.marshal()); err != nil {
		return err
	}

	dir := make([]byte, int(numBuckets)*DirEntrySize)
	for i := range buckets {
		row := dir[i*DirEntrySize : (i+1)*DirEntrySize]
		binary.LittleEndian.PutUint64(row[0:8], uint64(bucketOffsets[i]))
		binary.LittleEndian.PutUint32(row[8:12], uint32(len(buckets[i])))
	}
	if _, err := dst.Write(dir); err != nil {
		return err
	}

	for i := range buckets {
		buf := make([]byte, stride)
		for _, e := range buckets[i] {
			binary.LittleEndian.PutUint64(buf[0:8], uint64(payloadsStart)+e.offset)
			putKey(buf[8:8+keyWidth[T]()], e.id)
			binary.LittleEndian.PutUint32(buf[8+keyWidth[T]():stride], e.size)
			if _, err := dst.Write(buf); err != nil {
				return err
			}
		}
	}

	if _, err := b.spill.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(dst, b.spill); err != nil {
		return err
	}

	log.Debugw("table closed", "buckets", numBuckets, "entries", b.n, "payload_bytes", b.offset)
	return nil
}

// TempDir is a convenience for callers that want spill files colocated
// with a base directory rather than the OS default temp location.
func TempDir(basePath string) string {
	return filepath.Join(basePath, ".spill")
}
