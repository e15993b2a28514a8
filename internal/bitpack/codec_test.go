package bitpack

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitWidthZeroIsOne(t *testing.T) {
	assert.Equal(t, 1, BitWidth(uint32(0)))
}

func TestClampWidthToType(t *testing.T) {
	assert.Equal(t, 8, ClampWidth[uint8](10))
	assert.Equal(t, 64, ClampWidth[uint64](65))
}

func TestZigZagRoundtripSigned(t *testing.T) {
	// S2 from the seed scenarios: negative-dominated int16 input.
	vs := []int16{-300, -2, -1, 0, 1, 2, 32767}
	wantCodes := []uint64{599, 3, 1, 0, 2, 4, 65534}

	for i, v := range vs {
		code := Encode(v)
		assert.Equal(t, wantCodes[i], code, "value %d", v)
		assert.Equal(t, v, Decode[int16](code))
	}
}

func TestEncodeDecodeRoundtripAllWidths(t *testing.T) {
	roundtripUnsigned[uint8](t)
	roundtripUnsigned[uint16](t)
	roundtripUnsigned[uint32](t)
	roundtripUnsigned[uint64](t)
	roundtripSigned[int8](t)
	roundtripSigned[int16](t)
	roundtripSigned[int32](t)
	roundtripSigned[int64](t)
}

func roundtripUnsigned[T ~uint8 | ~uint16 | ~uint32 | ~uint64](t *testing.T) {
	t.Helper()
	for _, v := range []T{0, 1, 2, ^T(0)} {
		got := Decode[T](Encode(v))
		assert.Equal(t, v, got)
	}
}

func roundtripSigned[T ~int8 | ~int16 | ~int32 | ~int64](t *testing.T) {
	t.Helper()
	var minVal, maxVal T
	switch BitsOf[T]() {
	case 8:
		minVal, maxVal = T(-128), T(127)
	case 16:
		minVal, maxVal = T(-32768), T(32767)
	case 32:
		minVal, maxVal = T(-2147483648), T(2147483647)
	default:
		minVal, maxVal = T(-9223372036854775808), T(9223372036854775807)
	}
	for _, v := range []T{minVal, -1, 0, 1, maxVal} {
		got := Decode[T](Encode(v))
		assert.Equal(t, v, got)
	}
}

func TestWriterReaderRoundtripSingleValue(t *testing.T) {
	for w := 1; w <= 64; w++ {
		var v uint64
		if w < 64 {
			v = (uint64(1) << w) - 1 // max value representable in w bits
		} else {
			v = ^uint64(0)
		}
		var buf bytes.Buffer
		bw := NewWriter(&buf)
		require.NoError(t, bw.WriteBits(v, w))
		require.NoError(t, bw.Flush())

		br := NewReader(bytes.NewReader(buf.Bytes()))
		got, err := br.ReadBits(w)
		require.NoError(t, err)
		assert.Equal(t, v, got, "width %d", w)
	}
}

func TestWriterReaderRoundtripSequence(t *testing.T) {
	values := []uint64{0, 1000, 50000, 1000000}
	width := 20
	var buf bytes.Buffer
	bw := NewWriter(&buf)
	for _, v := range values {
		require.NoError(t, bw.WriteBits(v, width))
	}
	require.NoError(t, bw.Flush())

	br := NewReader(bytes.NewReader(buf.Bytes()))
	for _, want := range values {
		got, err := br.ReadBits(width)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReaderCleanEOFBetweenValues(t *testing.T) {
	br := NewReader(bytes.NewReader(nil))
	_, err := br.ReadBits(8)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderUnexpectedEOFMidValue(t *testing.T) {
	// One byte staged, but we ask for 16 bits: partial progress then EOF.
	br := NewReader(bytes.NewReader([]byte{0xFF}))
	_, err := br.ReadBits(16)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPairWriterReader(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPairWriter(NewWriter(&buf), 10, 6)
	require.NoError(t, pw.WritePair(500, 30))
	require.NoError(t, pw.WritePair(1, 1))
	require.NoError(t, pw.Flush())

	pr := NewPairReader(NewReader(bytes.NewReader(buf.Bytes())), 10, 6)
	a, b, err := pr.ReadPair()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), a)
	assert.Equal(t, uint64(30), b)

	a, b, err = pr.ReadPair()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a)
	assert.Equal(t, uint64(1), b)
}
