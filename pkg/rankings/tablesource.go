package rankings

import (
	"context"
	"fmt"
)

// TableSource supplies the four agency tables. Sources are read-only: Load
// returns a fresh snapshot and the system never writes ranking data back.
// Implementations normalize periods to integers and institutions to
// non-empty strings before returning.
type TableSource interface {
	// Load reads every source table. The returned map carries one Table per
	// Source; a missing required column fails the whole load.
	Load(ctx context.Context) (map[Source]Table, error)
	// PeerGroups reads the optional peer-set table. Sources without peer
	// data return an empty slice and no error.
	PeerGroups(ctx context.Context) ([]PeerGroup, error)
	// Close releases underlying handles.
	Close() error
}

// MissingColumnError reports a source table that violates the loader
// contract by omitting a required column.
type MissingColumnError struct {
	Source Source
	Column string
}

func (e MissingColumnError) Error() string {
	return fmt.Sprintf("source %s: required column %q missing", e.Source, e.Column)
}

// UnknownSourceError reports a token that names none of the four sources.
type UnknownSourceError struct {
	Name string
}

func (e UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown ranking source %q", e.Name)
}
