// Package blobstore abstracts the object storage that holds uploaded images
// and serialized records.
//
// A BlobStore stores whole, immutable blobs by name. Names use forward
// slashes regardless of the platform. Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral services
//   - LocalStore: local filesystem, reads served through mmap
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - minio.Store: MinIO and other S3-compatible storage
package blobstore
