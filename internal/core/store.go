package core

import (
	"context"

	"rankcore/pkg/rankings"
)

// StaticTableSource serves a fixed in-memory table set. It backs embedded
// and test deployments where the tables arrive preloaded rather than read
// from files or a database.
type StaticTableSource struct {
	tables map[rankings.Source]rankings.Table
	peers  []rankings.PeerGroup
}

var _ rankings.TableSource = (*StaticTableSource)(nil)

// NewStaticTableSource builds a source over the given tables and peer
// groups. The map and peer slice are copied; tables themselves are
// immutable and shared.
func NewStaticTableSource(tables map[rankings.Source]rankings.Table, peers []rankings.PeerGroup) *StaticTableSource {
	src := &StaticTableSource{
		tables: make(map[rankings.Source]rankings.Table, len(tables)),
		peers:  make([]rankings.PeerGroup, len(peers)),
	}
	for s, t := range tables {
		src.tables[s] = t
	}
	for i, g := range peers {
		src.peers[i] = g.Clone()
	}
	return src
}

// Load implements rankings.TableSource.
func (s *StaticTableSource) Load(ctx context.Context) (map[rankings.Source]rankings.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[rankings.Source]rankings.Table, len(s.tables))
	for src, t := range s.tables {
		out[src] = t
	}
	return out, nil
}

// PeerGroups implements rankings.TableSource.
func (s *StaticTableSource) PeerGroups(ctx context.Context) ([]rankings.PeerGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]rankings.PeerGroup, len(s.peers))
	for i, g := range s.peers {
		out[i] = g.Clone()
	}
	return out, nil
}

// Close implements rankings.TableSource.
func (s *StaticTableSource) Close() error { return nil }
