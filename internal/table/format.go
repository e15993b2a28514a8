// Package table implements the hash-bucketed keyed blob format: a
// directory of buckets, each holding a sorted array of (offset, id,
// size) entries, backing both the general keyed store and the
// secondary-index posting files. The on-disk layout is bit-exact: a
// fixed 32-byte header, a directory sized to the chosen bucket count,
// per-bucket entry arrays, then opaque payload bytes.
package table

import (
	"encoding/binary"

	"github.com/rpcpool/colbits/internal/errs"
)

// HeaderSize is the fixed byte length of a Table File header.
const HeaderSize = 32

// DirEntrySize is the byte length of one directory row
// (bucket_offset u64, bucket_count u32).
const DirEntrySize = 12

// magicBytes spells out the fixed 64-bit table magic constant.
var magicBytes = [8]byte{'C', 'O', 'L', 'B', 'T', 'B', 'L', '1'}

// Magic is the fixed constant every Table File header must carry.
var Magic = binary.LittleEndian.Uint64(magicBytes[:])

// Key is the closed set of id widths a Table File can be keyed by.
type Key interface {
	~uint16 | ~uint32 | ~uint64
}

// keyWidth returns the byte width of T: 2, 4 or 8.
func keyWidth[T Key]() int {
	var zero T
	switch any(zero).(type) {
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// entryStride returns the byte length of one (offset, id, size) entry
// for the given key type: 8 + keyWidth + 4.
func entryStride[T Key]() int {
	return 8 + keyWidth[T]() + 4
}

// header is the fixed 32-byte prefix of a Table File.
type header struct {
	NumBuckets uint64
}

func (h *header) marshal() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], Magic)
	binary.LittleEndian.PutUint64(buf[8:16], h.NumBuckets)
	return buf
}

func (h *header) unmarshal(buf []byte) error {
	if len(buf) < HeaderSize {
		return errs.UnexpectedEoff("short table header: got %d bytes, want %d", len(buf), HeaderSize)
	}
	gotMagic := binary.LittleEndian.Uint64(buf[0:8])
	if gotMagic != Magic {
		return errs.InvalidDataf("invalid table magic %#x", gotMagic)
	}
	h.NumBuckets = binary.LittleEndian.Uint64(buf[8:16])
	if h.NumBuckets == 0 {
		return errs.InvalidDataf("table header declares zero buckets")
	}
	return nil
}

func putKey[T Key](buf []byte, id T) {
	switch keyWidth[T]() {
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(id))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(id))
	default:
		binary.LittleEndian.PutUint64(buf, uint64(id))
	}
}

func getKey[T Key](buf []byte) T {
	switch keyWidth[T]() {
	case 2:
		return T(binary.LittleEndian.Uint16(buf))
	case 4:
		return T(binary.LittleEndian.Uint32(buf))
	default:
		return T(binary.LittleEndian.Uint64(buf))
	}
}

// bucketFor returns the bucket index for id under numBuckets.
func bucketFor[T Key](id T, numBuckets uint64) uint64 {
	return uint64(id) % numBuckets
}

// targetBucketBytes is the default per-bucket byte budget the builder
// sizes num_buckets against (spec's constant 512).
const targetBucketBytes = 512

// numBucketsFor computes num_buckets = ceil(n*entrySize/targetBucketBytes) + 1.
func numBucketsFor(n int, entrySize int) uint64 {
	total := n * entrySize
	buckets := (total + targetBucketBytes - 1) / targetBucketBytes
	return uint64(buckets) + 1
}
