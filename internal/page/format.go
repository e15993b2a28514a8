// Package page implements the self-describing, bit-packed Encoded Page
// format: a fixed 64-byte header (magic, version, element width, bit
// width, count, min, max, payload length) followed by a bit-tight
// payload, plus the streaming writer and predicate-aware reader built
// on top of it.
package page

import (
	"encoding/binary"

	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/errs"
)

// HeaderSize is the fixed byte length of an Encoded Page header.
const HeaderSize = 64

// Magic is the fixed 6-byte page magic, "BITPK1".
var Magic = [6]byte{'B', 'I', 'T', 'P', 'K', '1'}

// Version is the only page format version this package writes or reads.
const Version uint8 = 1

// Header is the fixed-layout prefix of an Encoded Page, parameterized
// by the column's element type so Min/Max round-trip without a
// reflection-based width switch at call sites.
type Header[T bitpack.Word] struct {
	BitWidth     uint8
	Count        uint64
	Min          T
	Max          T
	PayloadBytes uint64
}

func elemWidth[T bitpack.Word]() int {
	return bitpack.BitsOf[T]() / 8
}

// Marshal serializes the header into a HeaderSize-byte buffer, with
// reserved trailing bytes left zero.
func (h *Header[T]) Marshal() []byte {
	w := elemWidth[T]()
	buf := make([]byte, HeaderSize)
	copy(buf[0:6], Magic[:])
	buf[6] = Version
	buf[7] = uint8(w)
	buf[8] = h.BitWidth
	binary.LittleEndian.PutUint64(buf[9:17], h.Count)
	putLE(buf[17:17+w], bitpack.RawBits(h.Min))
	putLE(buf[17+w:17+2*w], bitpack.RawBits(h.Max))
	binary.LittleEndian.PutUint64(buf[17+2*w:25+2*w], h.PayloadBytes)
	return buf
}

// Unmarshal parses a HeaderSize-byte buffer, validating magic, version
// and element width against T.
func (h *Header[T]) Unmarshal(buf []byte) error {
	if len(buf) < HeaderSize {
		return errs.UnexpectedEoff("short page header: got %d bytes, want %d", len(buf), HeaderSize)
	}
	var gotMagic [6]byte
	copy(gotMagic[:], buf[0:6])
	if gotMagic != Magic {
		return errs.InvalidDataf("invalid page magic %q", gotMagic)
	}
	if buf[6] != Version {
		return errs.InvalidDataf("unsupported page version %d, want %d", buf[6], Version)
	}
	w := elemWidth[T]()
	if int(buf[7]) != w {
		return errs.InvalidDataf("page element width %d does not match column type width %d", buf[7], w)
	}
	bw := buf[8]
	if bw == 0 || int(bw) > bitpack.BitsOf[T]() {
		return errs.InvalidDataf("invalid bit width %d for type width %d", bw, bitpack.BitsOf[T]())
	}
	h.BitWidth = bw
	h.Count = binary.LittleEndian.Uint64(buf[9:17])
	h.Min = bitpack.FromRawBits[T](getLE(buf[17 : 17+w]))
	h.Max = bitpack.FromRawBits[T](getLE(buf[17+w : 17+2*w]))
	h.PayloadBytes = binary.LittleEndian.Uint64(buf[17+2*w : 25+2*w])
	return nil
}

func putLE(buf []byte, u uint64) {
	for i := range buf {
		buf[i] = byte(u >> (8 * i))
	}
}

func getLE(buf []byte) uint64 {
	var u uint64
	for i, b := range buf {
		u |= uint64(b) << (8 * i)
	}
	return u
}
