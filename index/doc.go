// Package index defines the contract between a collection and its
// approximate nearest-neighbor index.
//
// An index stores vectors keyed by slot, the dense position of a point
// inside its collection. Inserting an existing slot replaces its vector.
// Search returns slots ordered by ascending cosine distance.
//
// # Subpackages
//
//   - flat: Exhaustive scan, exact ordering
//
// The HNSW graph lives in package hnsw and is the default collaborator.
package index
