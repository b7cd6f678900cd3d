// Package blob implements remote.BlobStore backends: direct S3 (any
// S3-compatible endpoint), MinIO, and the sync gateway, which hands out
// presigned URLs the client uploads to over plain HTTP.
//
// Deleting an absent object succeeds on every backend.
package blob
