// Package schema derives the relational layout of the ranking tables from
// the source profiles. SQL-backed table sources and the catalog checker
// share it so column expectations cannot drift between drivers.
package schema

import (
	"rankcore/pkg/rankings"
)

// ColumnType is the storage class a column uses across both SQL dialects.
type ColumnType string

// Storage classes. Metric cells keep their published textual form; the
// loaders coerce them with the same rules as the CSV path.
const (
	TypeInteger ColumnType = "INTEGER"
	TypeText    ColumnType = "TEXT"
)

// Column describes one physical column of a ranking table.
type Column struct {
	Name     string
	Type     ColumnType
	Required bool
}

// Table describes one source's relational table.
type Table struct {
	Source  rankings.Source
	Name    string
	Columns []Column
}

// Column returns the table's column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// MetricColumns returns the names of the non-shared columns in declaration
// order.
func (t Table) MetricColumns() []string {
	var out []string
	for _, c := range t.Columns {
		switch c.Name {
		case rankings.ColumnPeriod, rankings.ColumnInstitution:
			continue
		}
		out = append(out, c.Name)
	}
	return out
}

// ForProfile derives a source's table schema: the shared period and
// institution columns, the region column, then the catalog's metric
// columns in display order. Duplicate physical columns collapse to one.
func ForProfile(p rankings.Profile) Table {
	t := Table{
		Source: p.Source,
		Name:   p.TableName,
		Columns: []Column{
			{Name: rankings.ColumnPeriod, Type: TypeInteger, Required: true},
			{Name: rankings.ColumnInstitution, Type: TypeText, Required: true},
		},
	}
	seen := map[string]struct{}{
		rankings.ColumnPeriod:      {},
		rankings.ColumnInstitution: {},
	}
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		t.Columns = append(t.Columns, Column{Name: name, Type: TypeText})
	}
	add(p.RegionColumn)
	add(p.RankColumn)
	for _, m := range p.Metrics {
		add(m.Column)
	}
	return t
}

// All derives every source table in canonical source order.
func All(profiles map[rankings.Source]rankings.Profile) []Table {
	out := make([]Table, 0, len(profiles))
	for _, src := range rankings.Sources() {
		p, ok := profiles[src]
		if !ok {
			continue
		}
		out = append(out, ForProfile(p))
	}
	return out
}

// PeerTableName is the relational home of the peer group rows.
const PeerTableName = "peer_groups"

// PeerTable describes the companion peer-set table.
func PeerTable() Table {
	return Table{
		Name: PeerTableName,
		Columns: []Column{
			{Name: rankings.ColumnPeerType, Type: TypeText, Required: true},
			{Name: rankings.ColumnPeerName, Type: TypeText, Required: true},
		},
	}
}
