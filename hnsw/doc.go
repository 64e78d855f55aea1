// Package hnsw implements a Hierarchical Navigable Small World graph for
// approximate cosine nearest-neighbor search over collection slots.
//
// Vectors are L2-normalized on insert and at query time, so the graph
// compares them by 1 - dot. Levels are drawn from a seeded generator:
// replaying the same inserts with the same seed yields the same graph.
//
// # Re-inserting a slot
//
// Inserting a slot that already exists appends a new node for it and marks
// the previous node as superseded. Superseded nodes keep their edges so the
// graph stays connected, but they are never returned from Search.
package hnsw
