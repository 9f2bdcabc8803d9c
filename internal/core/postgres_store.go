package core

import (
	"context"

	"rankcore/internal/infra/source/postgres"
)

// NewPostgresSource constructs a Postgres-backed table source from the
// provided DSN.
func NewPostgresSource(ctx context.Context, dsn string, profiles map[Source]Profile) (*postgres.Store, error) {
	return postgres.NewStore(ctx, dsn, profiles)
}
