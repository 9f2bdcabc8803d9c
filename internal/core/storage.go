package core

import (
	"context"
	"fmt"
	"os"

	"rankcore/internal/blob"
	csvsource "rankcore/internal/infra/source/memory"
	"rankcore/pkg/rankings"
)

// SourceDriver identifies a concrete table source implementation.
type SourceDriver string

const (
	SourceMemory   SourceDriver = "memory"   // CSV blobs via the blob facade
	SourceSQLite   SourceDriver = "sqlite"   // embedded sqlite file
	SourcePostgres SourceDriver = "postgres" // PostgreSQL server
)

type (
	Source      = rankings.Source
	Profile     = rankings.Profile
	TableSource = rankings.TableSource
)

// OpenTableSource selects a table source using environment variables.
// Defaults to CSV blobs when unset. A nil profiles map means the built-in
// profiles.
//
//	RANKCORE_SOURCE_DRIVER: memory|sqlite|postgres (default memory)
//	RANKCORE_CSV_PREFIX: blob key prefix for the memory driver
//	RANKCORE_SQLITE_PATH: sqlite file path when driver=sqlite
//	RANKCORE_POSTGRES_DSN: postgres DSN when driver=postgres
//
// The memory driver reads through the blob store configured by the
// RANKCORE_BLOB_* variables.
func OpenTableSource(ctx context.Context, profiles map[Source]Profile) (TableSource, error) {
	if profiles == nil {
		profiles = rankings.DefaultProfiles()
	}
	driver := os.Getenv("RANKCORE_SOURCE_DRIVER")
	if driver == "" {
		driver = string(SourceMemory)
	}
	switch SourceDriver(driver) {
	case SourceMemory:
		store, err := blob.Open(ctx)
		if err != nil {
			return nil, err
		}
		return NewCSVSource(store, profiles, os.Getenv("RANKCORE_CSV_PREFIX")), nil
	case SourceSQLite:
		return NewSQLiteSource(os.Getenv("RANKCORE_SQLITE_PATH"), profiles)
	case SourcePostgres:
		return NewPostgresSource(ctx, os.Getenv("RANKCORE_POSTGRES_DSN"), profiles)
	default:
		return nil, fmt.Errorf("unknown source driver %s", driver)
	}
}

// NewCSVSource constructs the CSV-over-blob table source.
func NewCSVSource(store blob.Store, profiles map[Source]Profile, prefix string) TableSource {
	return csvsource.New(store, profiles, prefix)
}
