package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pikodb"
	"github.com/hupe1980/pikodb/persistence"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ModeMemory, cfg.Persistence.Mode)
	assert.Equal(t, pikodb.DefaultOverfetchFactor, cfg.Search.OverfetchFactor)
}

func TestParse(t *testing.T) {
	data := []byte(`
log:
  level: debug
  format: json
search:
  overfetch_factor: 8
persistence:
  mode: minio
  name: store.bin
  codec: go-json
  compression: zstd
  strict_load: true
  minio:
    endpoint: localhost:9000
    access_key: key
    secret_key: secret
    bucket: vectors
    prefix: prod/
limits:
  max_concurrent_queries: 4
  io_bytes_per_sec: 1048576
collections:
  - name: docs
    embedding: text-embedding-3-small
  - name: custom
    embedding: custom
    dimension: 3
    build_quality: quick
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Search.OverfetchFactor)
	assert.Equal(t, ModeMinIO, cfg.Persistence.Mode)
	assert.Equal(t, "store.bin", cfg.Persistence.Name)
	assert.True(t, cfg.Persistence.StrictLoad)
	assert.Equal(t, MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "vectors",
		Prefix:    "prod/",
	}, cfg.Persistence.MinIO)
	assert.Equal(t, LimitsConfig{MaxConcurrentQueries: 4, IOBytesPerSec: 1 << 20}, cfg.Limits)
	require.Len(t, cfg.Collections, 2)

	format, err := cfg.Persistence.format()
	require.NoError(t, err)
	assert.Equal(t, "go-json", format.Codec.Name())
	assert.Equal(t, persistence.CompressionZSTD, format.Compression)

	docs, err := cfg.Collections[0].IndexConfig()
	require.NoError(t, err)
	assert.Equal(t, pikodb.StandardIndex(pikodb.TextEmbedding3Small), docs)

	custom, err := cfg.Collections[1].IndexConfig()
	require.NoError(t, err)
	assert.Equal(t, pikodb.QuickIndex(pikodb.CustomEmbedding(3)), custom)
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("PIKODB_TEST_SECRET", "s3cr3t")
	t.Setenv("PIKODB_TEST_DIR", "/var/lib/pikodb")

	cfg, err := Parse([]byte(`
persistence:
  mode: minio
  path: ${PIKODB_TEST_DIR}/unused
  minio:
    endpoint: localhost:9000
    bucket: b
    secret_key: ${PIKODB_TEST_SECRET}
`))
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.Persistence.MinIO.SecretKey)
	assert.Equal(t, "/var/lib/pikodb/unused", cfg.Persistence.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"UnknownLevel", "log: {level: loud}", "log:"},
		{"UnknownFormat", "log: {format: xml}", `unknown format "xml"`},
		{"Overfetch", "search: {overfetch_factor: 0}", "overfetch_factor"},
		{"UnknownMode", "persistence: {mode: tape}", `unknown mode "tape"`},
		{"MissingPath", "persistence: {mode: filesystem}", "path is required"},
		{"MissingBucket", "persistence: {mode: s3}", "s3.bucket is required"},
		{"MissingEndpoint", "persistence: {mode: minio, minio: {bucket: b}}", "minio.endpoint is required"},
		{"UnknownCodec", "persistence: {codec: xml}", "unknown codec"},
		{"UnknownCompression", "persistence: {compression: brotli}", "unknown compression"},
		{"NegativeLimit", "limits: {max_concurrent_queries: -1}", "max_concurrent_queries"},
		{"CollectionName", "collections: [{embedding: custom, dimension: 3}]", "name is required"},
		{"CollectionDimension", "collections: [{name: a, embedding: custom}]", "collections[0]"},
		{"CollectionEmbedding", "collections: [{name: a, embedding: word2vec}]", "unknown embedding model"},
		{"CollectionQuality", "collections: [{name: a, embedding: custom, dimension: 2, build_quality: best}]", "unknown build quality"},
		{"DuplicateCollection", "collections: [{name: a, embedding: custom, dimension: 2}, {name: a, embedding: custom, dimension: 2}]", "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Search.OverfetchFactor = 0
	cfg.Persistence.Mode = "tape"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overfetch_factor")
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("log: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pikodb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: {overfetch_factor: 3}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.OverfetchFactor)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func quiet() pikodb.Option {
	return pikodb.WithLogger(pikodb.NoopLogger())
}

func TestOpenMemory(t *testing.T) {
	cfg, err := Parse([]byte(`
limits: {max_concurrent_queries: 2}
collections:
  - {name: b, embedding: custom, dimension: 2}
  - {name: a, embedding: custom, dimension: 2}
`))
	require.NoError(t, err)

	client, err := cfg.Open(context.Background(), quiet())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, []string{"a", "b"}, client.CollectionNames())

	ctx := context.Background()
	require.NoError(t, client.UpsertPoints(ctx, "a", []pikodb.Point{
		pikodb.NewPointWithID("x", []float32{1, 0}, nil),
	}))

	results, err := client.Query(ctx, "a", []float32{1, 0}, 1, pikodb.EfBalanced)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "x", results[0].ID)
}

func TestOpenPersistentModes(t *testing.T) {
	for _, mode := range []string{ModeFileSystem, ModeSQLite, ModeLocal} {
		t.Run(mode, func(t *testing.T) {
			ctx := context.Background()

			path := filepath.Join(t.TempDir(), "data")
			if mode != ModeLocal {
				path += ".db"
			}

			cfg := Default()
			cfg.Persistence.Mode = mode
			cfg.Persistence.Path = path
			cfg.Persistence.Compression = "lz4"
			cfg.Collections = []CollectionConfig{{Name: "docs", Embedding: "custom", Dimension: 2}}

			client, err := cfg.Open(ctx, quiet())
			require.NoError(t, err)

			require.NoError(t, client.UpsertPoints(ctx, "docs", []pikodb.Point{
				pikodb.NewPointWithID("x", []float32{1, 0}, map[string]string{"k": "v"}),
				pikodb.NewPointWithID("y", []float32{0, 1}, nil),
			}))
			require.NoError(t, client.Close())

			reopened, err := cfg.Open(ctx, quiet())
			require.NoError(t, err)
			defer reopened.Close()

			results, err := reopened.Query(ctx, "docs", []float32{0, 1}, 2, pikodb.EfAccurate)
			require.NoError(t, err)
			require.Len(t, results, 2)
			assert.Equal(t, "y", results[0].ID)
			assert.Equal(t, "x", results[1].ID)
			assert.Equal(t, map[string]string{"k": "v"}, results[1].Metadata)
		})
	}
}

func TestOpenStrictLoad(t *testing.T) {
	cfg := Default()
	cfg.Persistence.Mode = ModeFileSystem
	cfg.Persistence.Path = filepath.Join(t.TempDir(), "missing.bin")
	cfg.Persistence.StrictLoad = true

	_, err := cfg.Open(context.Background(), quiet())
	require.Error(t, err)

	var pe *pikodb.PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestOpenConfigDrift(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.bin")

	cfg := Default()
	cfg.Persistence.Mode = ModeFileSystem
	cfg.Persistence.Path = path
	cfg.Collections = []CollectionConfig{{Name: "docs", Embedding: "custom", Dimension: 2}}

	client, err := cfg.Open(ctx, quiet())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	cfg.Collections[0].Dimension = 3

	_, err = cfg.Open(ctx, quiet(), pikodb.WithStrictConfig())
	require.Error(t, err)

	var mismatch *pikodb.ErrConfigMismatch
	assert.ErrorAs(t, err, &mismatch)
}
