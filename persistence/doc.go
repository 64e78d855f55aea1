// Package persistence snapshots the durable state of a store and restores it.
//
// A snapshot holds every collection's configuration, its points in slot order
// and its id-to-slot map. Indexes are never written; they are rebuilt from the
// points on load.
//
// # Snapshot format
//
// Every snapshot is framed by a little-endian header:
//
//	magic "PIKO" | version u16 | compression u8 | codec name len u8 | codec name |
//	payload length u64 | CRC32(payload) u32 | payload
//
// The payload is the State encoded by the named codec (binary, json or
// go-json) and then compressed (none, lz4 or zstd). Any framing, checksum or
// decoding problem is reported as a *DeserializationError.
//
// # Adapters
//
//   - [FileSystemAdapter]: one file, replaced atomically on every save
//   - [BlobAdapter]: one object in a blobstore.Store (memory, local, MinIO, S3)
//   - sqlite.Adapter: one row in a SQLite table (package persistence/sqlite)
package persistence
