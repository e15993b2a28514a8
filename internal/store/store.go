// Package store binds the engine's pieces — buffer pool, config,
// column writers/readers, table files and secondary indexes — to a
// concrete on-disk layout: base/<Struct>/<field>.bin for column files
// and base/<Struct>/<field>.idx for their indexes. It does not map
// struct fields to column writers itself; that schema-derivation step
// is an external collaborator (typically generated code) that already
// knows each field's type and simply calls the functions here with it.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/column"
	"github.com/rpcpool/colbits/internal/config"
	"github.com/rpcpool/colbits/internal/metrics"
	"github.com/rpcpool/colbits/internal/page"
)

var log = logging.Logger("colbits/store")

// Store is the open handle a CLI command or embedding application
// works through: one shared buffer pool and base path, sized from cfg.
type Store struct {
	cfg  *config.Config
	pool *bufpool.Pool
}

// Open constructs a Store from cfg, creating its base path if absent.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating base path %q: %w", cfg.BasePath, err)
	}
	return &Store{cfg: cfg, pool: bufpool.New(cfg.PoolMaxBytes)}, nil
}

// Pool returns the Store's shared buffer pool.
func (s *Store) Pool() *bufpool.Pool {
	return s.pool
}

// Config returns the Store's configuration.
func (s *Store) Config() *config.Config {
	return s.cfg
}

// ColumnPath returns the on-disk path of a field's column file.
func (s *Store) ColumnPath(structName, field string) string {
	return filepath.Join(s.cfg.BasePath, structName, field+".bin")
}

// IndexPath returns the on-disk path of a field's index file.
func (s *Store) IndexPath(structName, field string) string {
	return filepath.Join(s.cfg.BasePath, structName, field+".idx")
}

// SpillDir returns the directory two-pass writers should spill
// temporary files into, colocated with the struct's column files.
func (s *Store) SpillDir(structName string) string {
	return filepath.Join(s.cfg.BasePath, structName)
}

func (s *Store) ensureStructDir(structName string) error {
	return os.MkdirAll(filepath.Join(s.cfg.BasePath, structName), 0o755)
}

// ColumnWriter is a column.Writer bound to its backing file, with the
// column name metrics are reported under.
type ColumnWriter[T bitpack.Word] struct {
	*column.Writer[T]
	name string
	file *os.File
}

// OpenColumnWriter creates (or truncates) the column file for
// structName.field and returns a writer for it.
func OpenColumnWriter[T bitpack.Word](s *Store, structName, field string) (*ColumnWriter[T], error) {
	if err := s.ensureStructDir(structName); err != nil {
		return nil, err
	}
	f, err := os.Create(s.ColumnPath(structName, field))
	if err != nil {
		return nil, err
	}
	w, err := column.NewWriter[T](f, s.pool, s.cfg.PageByteSize, s.SpillDir(structName))
	if err != nil {
		f.Close()
		return nil, err
	}
	name := structName + "." + field
	return &ColumnWriter[T]{Writer: w, name: name, file: f}, nil
}

// Close flushes the column writer, reports its page count to metrics,
// and closes the underlying file.
func (w *ColumnWriter[T]) Close() error {
	if err := w.Writer.Close(); err != nil {
		w.file.Close()
		return err
	}
	metrics.PagesWritten.WithLabelValues(w.name).Add(float64(w.Writer.PagesWritten))
	return w.file.Close()
}

// ColumnReader is a page.Reader bound to its backing file.
type ColumnReader[T bitpack.Word] struct {
	*page.Reader[T]
	name string
	file *os.File
}

// OpenColumnReader opens structName.field's column file for predicate-
// aware scanning. A nil predicate scans every value. Pages the
// predicate rejects are reported to metrics under the column's name.
func OpenColumnReader[T bitpack.Word](s *Store, structName, field string, predicate page.Predicate[T]) (*ColumnReader[T], error) {
	f, err := os.Open(s.ColumnPath(structName, field))
	if err != nil {
		return nil, err
	}
	name := structName + "." + field
	if predicate == nil {
		predicate = page.AlwaysTrue[T]
	}
	counting := func(min, max T, count uint64, bitWidth uint8) bool {
		keep := predicate(min, max, count, bitWidth)
		if !keep {
			metrics.PagesSkipped.WithLabelValues(name).Inc()
		} else {
			metrics.PagesDecoded.WithLabelValues(name).Inc()
		}
		return keep
	}
	r := page.NewReader[T](f, s.pool, counting)
	return &ColumnReader[T]{Reader: r, name: name, file: f}, nil
}

// Close releases the underlying file handle.
func (r *ColumnReader[T]) Close() error {
	return r.file.Close()
}
