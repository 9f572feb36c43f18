// Package store persists configurations, uploaded images and image vectors on
// top of a blobstore.BlobStore.
//
// Every collection keeps its records as individual blobs under its own prefix
// plus an index blob holding a roaring bitmap of the live ids and the next id
// to assign:
//
//	configs/_index
//	configs/0000000001
//	images/_index
//	images/0000000001
//	images/data/0000000001
//	vectors/_index
//	vectors/0000000001
//
// Record blobs are codec-encoded and framed with a one byte compression tag,
// so a store written with zstd stays readable after switching to lz4.
// Ids are never reused.
package store
