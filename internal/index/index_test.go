package index

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapSetGetPositions(t *testing.T) {
	bm := NewBitmap()
	assert.True(t, bm.IsEmpty())
	bm.Set(0)
	bm.Set(63)
	bm.Set(64)
	bm.Set(200)
	assert.False(t, bm.IsEmpty())
	assert.True(t, bm.Get(64))
	assert.False(t, bm.Get(65))
	assert.Equal(t, []uint32{0, 63, 64, 200}, bm.Positions())

	bm.Clear(63)
	assert.False(t, bm.Get(63))
}

func TestBitmapMarshalRoundtrip(t *testing.T) {
	bm := NewBitmap()
	for _, p := range []uint32{1, 5, 130, 4095} {
		bm.Set(p)
	}
	raw := bm.Marshal()
	got, err := UnmarshalBitmap(raw)
	require.NoError(t, err)
	assert.Equal(t, bm.Positions(), got.Positions())
}

func int64Key(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

func TestCategoricalFlushAndQuery(t *testing.T) {
	cat := NewCategorical[int64](int64Key)
	cat.Add(7, 0)
	cat.Add(7, 2)
	cat.Add(9, 1)

	var buf bytes.Buffer
	require.NoError(t, cat.Flush(&buf, t.TempDir()))

	bm, err := QueryCategorical[int64](bytes.NewReader(buf.Bytes()), int64Key, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, bm.Positions())

	bm9, err := QueryCategorical[int64](bytes.NewReader(buf.Bytes()), int64Key, 9)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, bm9.Positions())

	_, err = QueryCategorical[int64](bytes.NewReader(buf.Bytes()), int64Key, 404)
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestDocIndexFlushAndQuery(t *testing.T) {
	pool := bufpool.New(0)
	doc := NewDocIndex(pool)
	doc.Add("the quick brown fox", 0)
	doc.Add("the lazy fox sleeps", 1)
	doc.Add("quick quick quick", 2)

	var buf bytes.Buffer
	require.NoError(t, doc.Flush(&buf, t.TempDir()))

	foxRows, err := QueryDocIndex(bytes.NewReader(buf.Bytes()), pool, "fox")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, foxRows)

	quickRows, err := QueryDocIndex(bytes.NewReader(buf.Bytes()), pool, "QUICK")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, quickRows)

	_, err = QueryDocIndex(bytes.NewReader(buf.Bytes()), pool, "absent")
	assert.ErrorIs(t, err, errs.NotFound)
}
