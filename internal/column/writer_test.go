package column

import (
	"bytes"
	"io"
	"testing"

	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnWriterRoundtripUnsigned(t *testing.T) {
	pool := bufpool.New(0)
	var buf bytes.Buffer
	w, err := NewWriter[uint32](&buf, pool, page.DefaultPageBytes, t.TempDir())
	require.NoError(t, err)

	vs := []uint32{0, 1000, 50000, 1000000}
	for _, v := range vs {
		require.NoError(t, w.Push(v))
	}
	require.NoError(t, w.Close())

	rd := page.NewReader[uint32](bytes.NewReader(buf.Bytes()), pool, nil)
	var got []uint32
	for {
		v, err := rd.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, vs, got)
}

// Mixed-sign input: the column's derived bit width must come from the
// maximum ZigZag code, not the raw maximum, or a large negative value
// would be truncated.
func TestColumnWriterMixedSignDerivesWidthFromCode(t *testing.T) {
	pool := bufpool.New(0)
	var buf bytes.Buffer
	w, err := NewWriter[int32](&buf, pool, page.DefaultPageBytes, t.TempDir())
	require.NoError(t, err)

	vs := []int32{-1000000, 1, 2, 3}
	for _, v := range vs {
		require.NoError(t, w.Push(v))
	}
	require.NoError(t, w.Close())

	rd := page.NewReader[int32](bytes.NewReader(buf.Bytes()), pool, nil)
	var got []int32
	for {
		v, err := rd.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, vs, got)
}

func TestColumnWriterEmptyProducesNoPages(t *testing.T) {
	pool := bufpool.New(0)
	var buf bytes.Buffer
	w, err := NewWriter[uint64](&buf, pool, page.DefaultPageBytes, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, 0, buf.Len())
}

func TestColumnWriterSpansMultiplePages(t *testing.T) {
	pool := bufpool.New(0)
	var buf bytes.Buffer
	w, err := NewWriter[uint16](&buf, pool, page.HeaderSize+1+16, t.TempDir())
	require.NoError(t, err)

	var vs []uint16
	for i := uint16(0); i < 500; i++ {
		vs = append(vs, i)
		require.NoError(t, w.Push(i))
	}
	require.NoError(t, w.Close())

	rd := page.NewReader[uint16](bytes.NewReader(buf.Bytes()), pool, nil)
	var got []uint16
	for {
		v, err := rd.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, vs, got)
}

func TestColumnWriterMinMaxCount(t *testing.T) {
	pool := bufpool.New(0)
	var buf bytes.Buffer
	w, err := NewWriter[int16](&buf, pool, page.DefaultPageBytes, t.TempDir())
	require.NoError(t, err)
	for _, v := range []int16{5, -9, 42, 0} {
		require.NoError(t, w.Push(v))
	}
	assert.Equal(t, uint64(4), w.Count())
	min, max := w.MinMax()
	assert.Equal(t, int16(-9), min)
	assert.Equal(t, int16(42), max)
	require.NoError(t, w.Close())
}
