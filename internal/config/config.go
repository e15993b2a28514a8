// Package config loads the engine's YAML or JSON configuration file:
// pool sizing, page sizing, per-field encoder/index selection, and the
// ambient logging/metrics surface.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rpcpool/colbits/internal/errs"
	"github.com/rpcpool/colbits/internal/page"
)

// Encoder names a field's on-disk encoding strategy.
type Encoder string

const (
	EncoderBitpack Encoder = "bitpack"
	EncoderDelta   Encoder = "delta"
	EncoderFixed   Encoder = "fixed"
	EncoderString  Encoder = "string"
)

// IndexKind names a field's secondary-index strategy.
type IndexKind string

const (
	IndexNone        IndexKind = "none"
	IndexCategorical IndexKind = "categorical"
	IndexDocument    IndexKind = "document"
)

// FieldConfig describes how one struct field is stored and indexed.
type FieldConfig struct {
	Name    string    `json:"name" yaml:"name"`
	Encoder Encoder   `json:"encoder" yaml:"encoder"`
	Index   IndexKind `json:"index" yaml:"index"`
}

// StructConfig describes one record type's fields.
type StructConfig struct {
	Name   string        `json:"name" yaml:"name"`
	Fields []FieldConfig `json:"fields" yaml:"fields"`
}

// Config is the engine's top-level configuration surface.
type Config struct {
	// BasePath is the directory under which column and index files are
	// written: base/<Struct>/<field>.bin, base/<Struct>/<field>.idx.
	BasePath string `json:"base_path" yaml:"base_path"`

	// PoolMaxBytes is the soft ceiling for aggregate cached bytes in the
	// process-wide buffer pool.
	PoolMaxBytes int64 `json:"pool_max_bytes" yaml:"pool_max_bytes"`

	// PageByteSize is the target page size; must be >= HEADER_SIZE+1.
	PageByteSize int `json:"page_byte_size" yaml:"page_byte_size"`

	// TableTargetBucketBytes is a per-bucket byte budget for table
	// sizing (default 512). It is loaded and carried in Config only; the
	// table builder does not read it and always sizes buckets with its
	// own fixed 512-byte budget.
	TableTargetBucketBytes int `json:"table_target_bucket_bytes" yaml:"table_target_bucket_bytes"`

	// MetricsAddr is a listen address for a Prometheus metrics endpoint.
	// It is loaded and carried in Config only; nothing in this module
	// starts an endpoint from it.
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`

	// LogLevel is a minimum log level, one of debug/info/warn/error. It
	// is loaded and carried in Config only; the CLI sets the log level
	// from its own --log-level flag, not from this field.
	LogLevel string `json:"log_level" yaml:"log_level"`

	Structs []StructConfig `json:"structs" yaml:"structs"`

	originalFilepath string
}

// Default returns a Config with every field at its documented default.
func Default() *Config {
	return &Config{
		PoolMaxBytes:           256 << 20,
		PageByteSize:           page.DefaultPageBytes,
		TableTargetBucketBytes: 512,
		LogLevel:               "info",
	}
}

// Load reads and parses a JSON or YAML config file, applying defaults
// for any field the file leaves zero.
func Load(path string) (*Config, error) {
	cfg := Default()
	switch {
	case isJSONFile(path):
		if err := loadFromJSON(path, cfg); err != nil {
			return nil, err
		}
	case isYAMLFile(path):
		if err := loadFromYAML(path, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("config file %q must be JSON or YAML", path)
	}
	cfg.originalFilepath = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded configuration for internally-inconsistent
// values before the engine starts using it.
func (c *Config) Validate() error {
	if c.PageByteSize < page.HeaderSize+1 {
		return errs.InvalidDataf("page_byte_size %d must be >= %d", c.PageByteSize, page.HeaderSize+1)
	}
	if c.PoolMaxBytes < 0 {
		return errs.InvalidDataf("pool_max_bytes must be non-negative, got %d", c.PoolMaxBytes)
	}
	if c.BasePath == "" {
		return errs.InvalidDataf("base_path must not be empty")
	}
	for _, s := range c.Structs {
		for _, f := range s.Fields {
			switch f.Encoder {
			case EncoderBitpack, EncoderDelta, EncoderFixed, EncoderString:
			default:
				return errs.InvalidDataf("struct %q field %q: unknown encoder %q", s.Name, f.Name, f.Encoder)
			}
			switch f.Index {
			case "", IndexNone, IndexCategorical, IndexDocument:
			default:
				return errs.InvalidDataf("struct %q field %q: unknown index kind %q", s.Name, f.Name, f.Index)
			}
		}
	}
	return nil
}

func isJSONFile(path string) bool {
	return strings.HasSuffix(path, ".json")
}

func isYAMLFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

func loadFromJSON(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(dst)
}

func loadFromYAML(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return yaml.NewDecoder(f).Decode(dst)
}
