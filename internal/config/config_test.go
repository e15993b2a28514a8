package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rpcpool/colbits/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colbits.yaml")
	contents := `
base_path: /data/colbits
pool_max_bytes: 1048576
page_byte_size: 131072
structs:
  - name: Event
    fields:
      - name: kind
        encoder: bitpack
        index: categorical
      - name: body
        encoder: string
        index: document
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/colbits", cfg.BasePath)
	assert.EqualValues(t, 1048576, cfg.PoolMaxBytes)
	assert.Equal(t, 131072, cfg.PageByteSize)
	require.Len(t, cfg.Structs, 1)
	assert.Equal(t, "Event", cfg.Structs[0].Name)
	assert.Equal(t, EncoderBitpack, cfg.Structs[0].Fields[0].Encoder)
	assert.Equal(t, IndexDocument, cfg.Structs[0].Fields[1].Index)
	// Default carried through for a field the file didn't set.
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 512, cfg.TableTargetBucketBytes)
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colbits.json")
	contents := `{"base_path": "/data/colbits", "page_byte_size": 65536}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/colbits", cfg.BasePath)
	assert.Equal(t, 65536, cfg.PageByteSize)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colbits.toml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsMissingBasePath(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.InvalidData)
}

func TestValidateRejectsUnknownEncoder(t *testing.T) {
	cfg := Default()
	cfg.BasePath = "/data"
	cfg.Structs = []StructConfig{{
		Name: "Event",
		Fields: []FieldConfig{
			{Name: "kind", Encoder: "rle", Index: IndexNone},
		},
	}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.InvalidData)
}

func TestValidateRejectsSmallPageByteSize(t *testing.T) {
	cfg := Default()
	cfg.BasePath = "/data"
	cfg.PageByteSize = 10
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.InvalidData)
}
