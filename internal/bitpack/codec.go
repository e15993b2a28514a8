// Package bitpack implements width-aware bit-packing for fixed-width
// integers, with ZigZag normalization for signed types, plus the
// streaming bit writer/reader that turns encoded values into (and back
// out of) a bit-tight byte payload.
//
// The type-generic encoder is monomorphized per the preference noted
// for the hot loop: a single set of generic functions instantiated per
// concrete integer type, rather than a runtime vtable.
package bitpack

import "math/bits"

// Word is the closed set of integer types the codec supports.
type Word interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// BitsOf returns the bit width of T (8, 16, 32 or 64).
func BitsOf[T Word]() int {
	var zero T
	switch any(zero).(type) {
	case int8, uint8:
		return 8
	case int16, uint16:
		return 16
	case int32, uint32:
		return 32
	default:
		return 64
	}
}

// Signed reports whether T is a signed integer type.
func Signed[T Word]() bool {
	var zero T
	return zero-1 < 0
}

// rawBits reinterprets v's two's-complement bit pattern as an unsigned
// value zero-extended to 64 bits (the "low bits" the spec refers to for
// unsigned types, and the pre-ZigZag pattern for signed types).
func rawBits[T Word](v T) uint64 {
	switch BitsOf[T]() {
	case 8:
		return uint64(uint8(v))
	case 16:
		return uint64(uint16(v))
	case 32:
		return uint64(uint32(v))
	default:
		return uint64(v)
	}
}

// signExtend reinterprets the low w bits of u as a signed integer and
// sign-extends it to 64 bits.
func signExtend(u uint64, w int) int64 {
	shift := uint(64 - w)
	return int64(u<<shift) >> shift
}

// zigzagEncode maps a signed 64-bit value to an unsigned code where
// small magnitudes produce small codes.
func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// zigzagDecode inverts zigzagEncode.
func zigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// Encode maps v to its unsigned wire code: identity on the low bits for
// unsigned types, width-aware ZigZag for signed types.
func Encode[T Word](v T) uint64 {
	raw := rawBits(v)
	if !Signed[T]() {
		return raw
	}
	return zigzagEncode(signExtend(raw, BitsOf[T]()))
}

// Decode inverts Encode. u is masked to BITS(T) before the (optional)
// inverse ZigZag is applied.
func Decode[T Word](u uint64) T {
	w := BitsOf[T]()
	if w < 64 {
		u &= (uint64(1) << w) - 1
	}
	if !Signed[T]() {
		return T(u)
	}
	return T(zigzagDecode(u))
}

// RawBits reinterprets v's bit pattern as an unsigned value, without
// ZigZag normalization. Used to serialize min/max header fields, which
// the page format stores as plain two's-complement values rather than
// ZigZag codes.
func RawBits[T Word](v T) uint64 {
	return rawBits(v)
}

// FromRawBits inverts RawBits.
func FromRawBits[T Word](u uint64) T {
	w := BitsOf[T]()
	if w < 64 {
		u &= (uint64(1) << w) - 1
	}
	switch w {
	case 8:
		return T(uint8(u))
	case 16:
		return T(uint16(u))
	case 32:
		return T(uint32(u))
	default:
		return T(u)
	}
}

// BitWidth returns the number of bits needed to store Encode(v): for a
// nonzero code, 64 minus its leading-zero count; zero maps to 1.
func BitWidth[T Word](v T) int {
	return CodeWidth(Encode(v))
}

// CodeWidth returns the number of bits needed to store an already
// width-aware-encoded value directly (a ZigZag code for signed types,
// the raw value for unsigned). Used by callers that track a running
// maximum code across many values and only need the final width once,
// rather than re-deriving it from a raw maximum: deriving the column
// width from max(encode(vs)) rather than the raw maximum is required
// for mixed-sign inputs, since ZigZag is not monotonic in v.
func CodeWidth(code uint64) int {
	if code == 0 {
		return 1
	}
	return 64 - bits.LeadingZeros64(code)
}

// ClampWidth clamps a requested bit width to T's bit count.
func ClampWidth[T Word](w int) int {
	limit := BitsOf[T]()
	if w > limit {
		return limit
	}
	if w < 1 {
		return 1
	}
	return w
}
