// Package blob re-exports core blob abstractions for stable internal imports.
package blob

import (
	"rankcore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the read-side interface for blob storage backends.
	Store = core.Store
	// NotFoundError reports a key with no stored object behind it.
	NotFoundError = core.NotFoundError
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// IsNotFound reports whether err wraps a missing-object condition.
var IsNotFound = core.IsNotFound
