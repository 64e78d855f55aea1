// Package model defines the value types shared by pikodb and its storage layers.
//
// # Embedding Types
//
//   - TextEmbedding3Small: 1536 dimensions
//   - TextEmbedding3Large: 3072 dimensions
//   - CustomEmbedding(dim): any positive dimension
//
// # Data Types
//
//   - Point: identifier, vector and string metadata
//   - IndexConfig: build quality plus embedding type of a collection
//   - EfSearch: query-time search effort tier
//   - MetadataFilter: required key/value pairs for post-filtering
//
// The root package re-exports these types, so most callers never import model
// directly.
package model
