// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil { ... }
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "kohonen/")
//
// Reads are served with ranged GetObject calls, writes go through the
// managed uploader so large images switch to multipart uploads.
package s3
