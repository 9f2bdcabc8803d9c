package core

import "rankcore/internal/infra/source/sqlite"

// NewSQLiteSource constructs a SQLite-backed table source using the
// provided file path (may be empty for default) and profiles.
func NewSQLiteSource(path string, profiles map[Source]Profile) (*sqlite.Store, error) {
	return sqlite.NewStore(path, profiles)
}
