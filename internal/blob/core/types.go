// Package core defines core abstractions for the read-only blob storage
// backends the dataset loaders pull agency files from.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local directory (default, dev)
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3" // S3 / MinIO compatible
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory" // in-memory (tests)
)

// SignedURLOptions holds options for generating a pre-signed URL.
type SignedURLOptions struct {
	Expiry  time.Duration // default 15m
	Headers map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url,omitempty"`
}

// Store provides a thin read-side S3-like abstraction over published
// dataset files. Ranking data is never written back, so the contract
// carries no mutating operations.
type Store interface {
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("blobstore: unsupported operation")

// NotFoundError reports a key with no stored object behind it.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("blob %q not found", e.Key)
}

// IsNotFound reports whether err wraps a missing-object condition.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
