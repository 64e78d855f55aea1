// Package testutil provides testing utilities for pikodb.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors and points, computing
// exact nearest neighbors and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformRangeVectors(1000, 64)
//	unit := rng.UnitVector(64)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.ExactTopK(query, vecs, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
