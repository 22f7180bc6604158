// Package blobstore provides the read path to the published search dataset.
//
// The dataset is a set of immutable JSON blobs (tag manifest, index shards,
// detail shards, location catalog). BlobStore is the interface for reading
// them. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - HTTPStore: static files behind an HTTP(S) origin or CDN
//   - LocalStore: local filesystem
//   - MemoryStore: in-memory, for tests and fixtures
//   - s3.Store: Amazon S3 (downloads via the transfer manager)
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	}
//
// Stores may additionally implement Reader to serve whole-blob reads without
// going through Open, Lister to enumerate blobs and Putter to seed fixtures.
package blobstore
