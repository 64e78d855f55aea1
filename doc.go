// Package pikodb provides an embedded vector store for Go.
//
// A store holds named collections of points. A point is a vector plus string
// metadata; every collection has one embedding dimension and its own
// approximate nearest-neighbor index (HNSW with cosine distance by default).
//
// # Quick Start
//
// In-memory mode:
//
//	ctx := context.Background()
//	client := pikodb.InMemory()
//	_ = client.CreateCollection(ctx, "docs", pikodb.StandardIndex(pikodb.CustomEmbedding(3)))
//	_ = client.UpsertPoints(ctx, "docs", []pikodb.Point{
//	    pikodb.NewPointWithID("a", []float32{1, 0, 0}, map[string]string{"lang": "go"}),
//	})
//	points, _ := client.Query(ctx, "docs", []float32{1, 0, 0}, 1, pikodb.EfBalanced)
//
// Persistent mode:
//
//	adapter := persistence.NewFileSystemAdapter("./data/pikodb.bin")
//	client, err := pikodb.Persistent(ctx, adapter)
//
// Every mutation writes a full snapshot through the adapter. On startup the
// snapshot is loaded and each collection's index is rebuilt by replaying its
// points in slot order.
//
// # Filtering
//
// Metadata filters are applied after retrieval. A filter list is an OR of
// ANDs: a point passes if it carries every pair of at least one filter.
// Filtered queries fetch limit × overfetch candidates (default 5), so fewer
// than limit results may come back when matches are rare.
//
//	points, _ := client.QueryWithFilter(ctx, "docs", q, 10, pikodb.EfAccurate,
//	    []pikodb.MetadataFilter{{"lang": "go"}, {"lang": "rust", "tier": "gold"}})
//
// # Storage Backends
//
//   - persistence.FileSystemAdapter: single file, atomic replace
//   - persistence.BlobAdapter: memory, local directory, MinIO or S3 blob
//   - sqlite.Adapter: single-row SQLite table
//
// The config package builds a client from a YAML file.
//
// # Observability
//
// WithLogger attaches a slog-based Logger and WithMetricsCollector a
// MetricsCollector. The prommetrics package exports the same events to
// Prometheus.
package pikodb
