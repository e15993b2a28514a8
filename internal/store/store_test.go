package store

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/rpcpool/colbits/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	cfg := config.Default()
	cfg.BasePath = t.TempDir()
	s, err := Open(cfg)
	require.NoError(t, err)
	return s
}

func TestColumnPathLayout(t *testing.T) {
	s := testStore(t)
	assert.Equal(t, filepath.Join(s.cfg.BasePath, "Event", "kind.bin"), s.ColumnPath("Event", "kind"))
	assert.Equal(t, filepath.Join(s.cfg.BasePath, "Event", "kind.idx"), s.IndexPath("Event", "kind"))
}

func TestColumnWriterReaderRoundtrip(t *testing.T) {
	s := testStore(t)

	w, err := OpenColumnWriter[uint32](s, "Event", "kind")
	require.NoError(t, err)
	vs := []uint32{1, 2, 3, 1000000}
	for _, v := range vs {
		require.NoError(t, w.Push(v))
	}
	require.NoError(t, w.Close())

	r, err := OpenColumnReader[uint32](s, "Event", "kind", nil)
	require.NoError(t, err)
	defer r.Close()

	var got []uint32
	for {
		v, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, vs, got)
}
