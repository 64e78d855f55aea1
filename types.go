package pikodb

import "github.com/hupe1980/pikodb/model"

type (
	// Point is one stored vector record with identifier and metadata.
	Point = model.Point

	// EmbeddingType identifies the vector dimensionality of a collection.
	EmbeddingType = model.EmbeddingType

	// IndexConfig bundles an embedding type with a build effort.
	IndexConfig = model.IndexConfig

	// BuildQuality is the index construction effort tier.
	BuildQuality = model.BuildQuality

	// EfSearch is the query-time search effort tier.
	EfSearch = model.EfSearch

	// MetadataFilter lists key/value pairs a point must all carry.
	MetadataFilter = model.MetadataFilter
)

// Build and search effort tiers.
const (
	BuildQuick    = model.BuildQuick
	BuildStandard = model.BuildStandard
	BuildRobust   = model.BuildRobust

	EfFast     = model.EfFast
	EfBalanced = model.EfBalanced
	EfAccurate = model.EfAccurate
)

// DefaultOverfetchFactor multiplies the fetch count of filtered searches.
const DefaultOverfetchFactor = 5

var (
	// TextEmbedding3Small is the 1536-dimensional preset.
	TextEmbedding3Small = model.TextEmbedding3Small
	// TextEmbedding3Large is the 3072-dimensional preset.
	TextEmbedding3Large = model.TextEmbedding3Large
)

// CustomEmbedding returns an embedding type with an explicit dimension.
func CustomEmbedding(dim int) EmbeddingType { return model.CustomEmbedding(dim) }

// NewPoint creates a point with a random UUIDv4 identifier.
func NewPoint(vector []float32, metadata map[string]string) Point {
	return model.NewPoint(vector, metadata)
}

// NewPointWithID creates a point with a caller-supplied identifier.
func NewPointWithID(id string, vector []float32, metadata map[string]string) Point {
	return model.NewPointWithID(id, vector, metadata)
}

// QuickIndex returns a quick-build config for e.
func QuickIndex(e EmbeddingType) IndexConfig { return model.QuickIndex(e) }

// StandardIndex returns a standard-build config for e.
func StandardIndex(e EmbeddingType) IndexConfig { return model.StandardIndex(e) }

// RobustIndex returns a robust-build config for e.
func RobustIndex(e EmbeddingType) IndexConfig { return model.RobustIndex(e) }
