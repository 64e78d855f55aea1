// Package config loads pikodb client settings from YAML.
//
// A configuration names the log setup, the persistence backend, resource
// limits and the collections to create on startup:
//
//	log: {level: info, format: json}
//	persistence:
//	  mode: filesystem
//	  path: ./data/pikodb.bin
//	  compression: zstd
//	collections:
//	  - {name: docs, embedding: text-embedding-3-small, build_quality: standard}
//
// String values may reference environment variables as ${NAME}.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/pikodb"
	"github.com/hupe1980/pikodb/codec"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/persistence"
)

// Persistence modes.
const (
	ModeMemory     = "memory"
	ModeFileSystem = "filesystem"
	ModeSQLite     = "sqlite"
	ModeLocal      = "local"
	ModeMinIO      = "minio"
	ModeS3         = "s3"
)

// Config is the root of a configuration file.
type Config struct {
	Log         LogConfig          `yaml:"log"`
	Search      SearchConfig       `yaml:"search"`
	Persistence PersistenceConfig  `yaml:"persistence"`
	Limits      LimitsConfig       `yaml:"limits"`
	Collections []CollectionConfig `yaml:"collections"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// SearchConfig tunes query behavior.
type SearchConfig struct {
	OverfetchFactor int `yaml:"overfetch_factor"`
}

// PersistenceConfig selects and configures the snapshot backend.
type PersistenceConfig struct {
	Mode        string      `yaml:"mode"`
	Path        string      `yaml:"path"`
	Name        string      `yaml:"name"`
	Codec       string      `yaml:"codec"`
	Compression string      `yaml:"compression"`
	StrictLoad  bool        `yaml:"strict_load"`
	MinIO       MinIOConfig `yaml:"minio"`
	S3          S3Config    `yaml:"s3"`
}

// MinIOConfig holds the connection settings of the minio mode.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// S3Config holds the bucket settings of the s3 mode.
// Credentials come from the default AWS chain.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// LimitsConfig bounds resource usage. Zero means unlimited.
type LimitsConfig struct {
	MaxConcurrentQueries int64 `yaml:"max_concurrent_queries"`
	IOBytesPerSec        int64 `yaml:"io_bytes_per_sec"`
}

// CollectionConfig declares a collection created on startup.
type CollectionConfig struct {
	Name         string `yaml:"name"`
	Embedding    string `yaml:"embedding"`
	Dimension    int    `yaml:"dimension"`
	BuildQuality string `yaml:"build_quality"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Search: SearchConfig{
			OverfetchFactor: pikodb.DefaultOverfetchFactor,
		},
		Persistence: PersistenceConfig{
			Mode:        ModeMemory,
			Name:        persistence.DefaultBlobName,
			Codec:       codec.Default.Name(),
			Compression: persistence.CompressionNone.String(),
		},
	}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default, expands environment references
// and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) expandEnvVars() {
	for _, s := range []*string{
		&c.Log.Level,
		&c.Log.Format,
		&c.Persistence.Mode,
		&c.Persistence.Path,
		&c.Persistence.Name,
		&c.Persistence.Codec,
		&c.Persistence.Compression,
		&c.Persistence.MinIO.Endpoint,
		&c.Persistence.MinIO.AccessKey,
		&c.Persistence.MinIO.SecretKey,
		&c.Persistence.MinIO.Bucket,
		&c.Persistence.MinIO.Prefix,
		&c.Persistence.S3.Bucket,
		&c.Persistence.S3.Prefix,
		&c.Persistence.S3.Region,
	} {
		*s = os.ExpandEnv(*s)
	}

	for i := range c.Collections {
		c.Collections[i].Name = os.ExpandEnv(c.Collections[i].Name)
		c.Collections[i].Embedding = os.ExpandEnv(c.Collections[i].Embedding)
		c.Collections[i].BuildQuality = os.ExpandEnv(c.Collections[i].BuildQuality)
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	if c.Search.OverfetchFactor < 1 {
		errs = append(errs, fmt.Errorf("search: overfetch_factor must be >= 1, got %d", c.Search.OverfetchFactor))
	}

	if err := c.Persistence.validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Limits.MaxConcurrentQueries < 0 {
		errs = append(errs, errors.New("limits: max_concurrent_queries must not be negative"))
	}
	if c.Limits.IOBytesPerSec < 0 {
		errs = append(errs, errors.New("limits: io_bytes_per_sec must not be negative"))
	}

	seen := make(map[string]struct{}, len(c.Collections))
	for i, cc := range c.Collections {
		if _, err := cc.IndexConfig(); err != nil {
			errs = append(errs, fmt.Errorf("collections[%d]: %w", i, err))
		}
		if _, dup := seen[cc.Name]; dup {
			errs = append(errs, fmt.Errorf("collections[%d]: duplicate name %q", i, cc.Name))
		}
		seen[cc.Name] = struct{}{}
	}

	return errors.Join(errs...)
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log: %w", err)
	}
	return level, nil
}

func (p PersistenceConfig) validate() error {
	var errs []error

	switch p.Mode {
	case ModeMemory:
	case ModeFileSystem, ModeSQLite, ModeLocal:
		if p.Path == "" {
			errs = append(errs, fmt.Errorf("persistence: path is required for mode %q", p.Mode))
		}
	case ModeMinIO:
		if p.MinIO.Endpoint == "" {
			errs = append(errs, errors.New("persistence: minio.endpoint is required"))
		}
		if p.MinIO.Bucket == "" {
			errs = append(errs, errors.New("persistence: minio.bucket is required"))
		}
	case ModeS3:
		if p.S3.Bucket == "" {
			errs = append(errs, errors.New("persistence: s3.bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("persistence: unknown mode %q", p.Mode))
	}

	if _, err := p.format(); err != nil {
		errs = append(errs, fmt.Errorf("persistence: %w", err))
	}

	return errors.Join(errs...)
}

func (p PersistenceConfig) format() (persistence.Format, error) {
	c, err := codec.Parse(p.Codec)
	if err != nil {
		return persistence.Format{}, err
	}
	compression, err := persistence.ParseCompression(p.Compression)
	if err != nil {
		return persistence.Format{}, err
	}
	return persistence.Format{Codec: c, Compression: compression}, nil
}

// IndexConfig converts the declaration into an index configuration.
func (cc CollectionConfig) IndexConfig() (pikodb.IndexConfig, error) {
	if cc.Name == "" {
		return pikodb.IndexConfig{}, errors.New("name is required")
	}

	m, err := model.ParseEmbeddingModel(cc.Embedding)
	if err != nil {
		return pikodb.IndexConfig{}, err
	}

	var e pikodb.EmbeddingType
	switch m {
	case model.ModelTextEmbedding3Small:
		e = pikodb.TextEmbedding3Small
	case model.ModelTextEmbedding3Large:
		e = pikodb.TextEmbedding3Large
	default:
		e = pikodb.CustomEmbedding(cc.Dimension)
	}
	if err := e.Validate(); err != nil {
		return pikodb.IndexConfig{}, err
	}

	q, err := model.ParseBuildQuality(cc.BuildQuality)
	if err != nil {
		return pikodb.IndexConfig{}, err
	}

	return model.NewIndexConfig(q, e), nil
}
