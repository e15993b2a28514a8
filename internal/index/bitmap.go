package index

import (
	"encoding/binary"
	"math/bits"

	"github.com/rpcpool/colbits/internal/errs"
)

// Bitmap is a growable set of non-negative integer row positions,
// backed by a slice of uint64 words. It generalizes the teacher's
// fixed 8-bit Bitmap (one byte, up to 8 positions) to an unbounded set,
// which a categorical posting list needs since a value's row count is
// unknown ahead of time.
type Bitmap struct {
	words []uint64
}

// NewBitmap returns an empty Bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{}
}

func (b *Bitmap) ensure(word int) {
	for len(b.words) <= word {
		b.words = append(b.words, 0)
	}
}

// Set marks position i as present.
func (b *Bitmap) Set(i uint32) {
	word, bit := int(i/64), i%64
	b.ensure(word)
	b.words[word] |= 1 << bit
}

// Clear marks position i as absent.
func (b *Bitmap) Clear(i uint32) {
	word := int(i / 64)
	if word >= len(b.words) {
		return
	}
	b.words[word] &^= 1 << (i % 64)
}

// Get reports whether position i is present.
func (b *Bitmap) Get(i uint32) bool {
	word := int(i / 64)
	if word >= len(b.words) {
		return false
	}
	return b.words[word]&(1<<(i%64)) != 0
}

// IsEmpty reports whether no position is set.
func (b *Bitmap) IsEmpty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Positions returns every set position in ascending order.
func (b *Bitmap) Positions() []uint32 {
	var out []uint32
	for wi, w := range b.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			out = append(out, uint32(wi*64+bit))
			w &= w - 1
		}
	}
	return out
}

// Marshal serializes the bitmap as a word count followed by its words,
// all little-endian.
func (b *Bitmap) Marshal() []byte {
	buf := make([]byte, 4+8*len(b.words))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(b.words)))
	for i, w := range b.words {
		binary.LittleEndian.PutUint64(buf[4+8*i:12+8*i], w)
	}
	return buf
}

// UnmarshalBitmap inverts Marshal.
func UnmarshalBitmap(buf []byte) (*Bitmap, error) {
	if len(buf) < 4 {
		return nil, errs.UnexpectedEoff("short bitmap: got %d bytes, want at least 4", len(buf))
	}
	n := binary.LittleEndian.Uint32(buf[0:4])
	want := 4 + 8*int(n)
	if len(buf) < want {
		return nil, errs.UnexpectedEoff("short bitmap: got %d bytes, want %d", len(buf), want)
	}
	words := make([]uint64, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(buf[4+8*i : 12+8*i])
	}
	return &Bitmap{words: words}, nil
}
