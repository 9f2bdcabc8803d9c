package schema

import (
	"testing"

	"rankcore/pkg/rankings"
)

func TestForProfileSharedColumnsFirst(t *testing.T) {
	profiles := rankings.DefaultProfiles()
	table := ForProfile(profiles[rankings.SourceTimes])

	if table.Name != "times_rankings" {
		t.Fatalf("unexpected table name %q", table.Name)
	}
	if len(table.Columns) < 3 {
		t.Fatalf("expected shared plus metric columns, got %d", len(table.Columns))
	}
	if table.Columns[0].Name != rankings.ColumnPeriod || table.Columns[0].Type != TypeInteger || !table.Columns[0].Required {
		t.Fatalf("unexpected period column: %+v", table.Columns[0])
	}
	if table.Columns[1].Name != rankings.ColumnInstitution || table.Columns[1].Type != TypeText || !table.Columns[1].Required {
		t.Fatalf("unexpected institution column: %+v", table.Columns[1])
	}
	if table.Columns[2].Name != rankings.ColumnRegion {
		t.Fatalf("expected region column third, got %q", table.Columns[2].Name)
	}
}

func TestForProfileDeduplicatesRankColumn(t *testing.T) {
	profiles := rankings.DefaultProfiles()
	for _, src := range rankings.Sources() {
		table := ForProfile(profiles[src])
		seen := map[string]int{}
		for _, c := range table.Columns {
			seen[c.Name]++
		}
		for name, n := range seen {
			if n > 1 {
				t.Fatalf("source %s: column %q declared %d times", src, name, n)
			}
		}
		if _, ok := table.Column(profiles[src].RankColumn); !ok {
			t.Fatalf("source %s: rank column missing from schema", src)
		}
	}
}

func TestAllCanonicalOrder(t *testing.T) {
	tables := All(rankings.DefaultProfiles())
	if len(tables) != 4 {
		t.Fatalf("expected 4 tables, got %d", len(tables))
	}
	for i, src := range rankings.Sources() {
		if tables[i].Source != src {
			t.Fatalf("position %d: expected %s, got %s", i, src, tables[i].Source)
		}
	}
}

func TestMetricColumnsExcludeSharedColumns(t *testing.T) {
	profiles := rankings.DefaultProfiles()
	table := ForProfile(profiles[rankings.SourceQS])
	for _, name := range table.MetricColumns() {
		if name == rankings.ColumnPeriod || name == rankings.ColumnInstitution {
			t.Fatalf("shared column %q leaked into metric columns", name)
		}
	}
}

func TestPeerTable(t *testing.T) {
	table := PeerTable()
	if table.Name != PeerTableName {
		t.Fatalf("unexpected peer table name %q", table.Name)
	}
	if _, ok := table.Column(rankings.ColumnPeerType); !ok {
		t.Fatalf("peer type column missing")
	}
	if _, ok := table.Column(rankings.ColumnPeerName); !ok {
		t.Fatalf("peer name column missing")
	}
}
