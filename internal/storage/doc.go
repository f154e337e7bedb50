// Package storage implements the "storage" activity family, which moves
// files between the local filesystem and an S3-compatible bucket.
//
// Client wraps minio-go. The family talks to it through ObjectStore so tests
// can substitute an in-memory bucket.
package storage
