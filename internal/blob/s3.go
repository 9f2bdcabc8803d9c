package blob

import (
	"context"

	infraS3 "rankcore/internal/infra/blob/s3"
)

// S3Config re-exports the infra S3 configuration type for callers inside
// the internal tree.
type S3Config = infraS3.Config

// NewS3 constructs an S3-backed blob.Store from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infraS3.New(ctx, cfg)
}

// OpenFromEnv constructs an S3 store using environment variables.
func OpenFromEnv(ctx context.Context) (Store, error) {
	return infraS3.OpenFromEnv(ctx)
}

// NewMockS3ForTests exposes the lightweight read-only mock for
// cross-package tests, serving the given objects keyed by object key.
func NewMockS3ForTests(objects map[string][]byte) Store { return infraS3.NewMockForTests(objects) }
