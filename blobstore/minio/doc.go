// Package minio provides a blobstore.Store for MinIO and other
// S3-compatible object storage, backed by minio-go.
//
// # Usage
//
//	store, err := minio.New(minio.Options{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "pikodb",
//	    Prefix:    "snapshots/",
//	})
package minio
