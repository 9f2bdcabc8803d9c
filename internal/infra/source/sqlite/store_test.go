package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"rankcore/pkg/rankings"
)

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %s: %v", query, err)
	}
}

func openSeeded(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "rank.db"), rankings.DefaultProfiles())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mustExec(t, store.DB(), `INSERT INTO "times_rankings" ("Year", "IPEDS_Name", "New_Jersey_University", "Times_Rank", "Overall")
		VALUES (2024, 'Rutgers University-New Brunswick', 'Yes', '201-250', '55')`)
	mustExec(t, store.DB(), `INSERT INTO "times_rankings" ("Year", "IPEDS_Name", "New_Jersey_University", "Times_Rank", "Overall")
		VALUES (2024, 'New Jersey Institute of Technology', 'Yes', '601-800', '45.2')`)
	mustExec(t, store.DB(), `INSERT INTO "times_rankings" ("Year", "IPEDS_Name", "New_Jersey_University", "Times_Rank")
		VALUES (2023, 'New Jersey Institute of Technology', 'Yes', '601-800')`)
	mustExec(t, store.DB(), `INSERT INTO "qs_rankings" ("Year", "IPEDS_Name", "New_Jersey_University", "QS_Rank")
		VALUES (2024, 'New Jersey Institute of Technology', 'Yes', '901-950')`)
	return store
}

func TestStoreLoadFromSeededDatabase(t *testing.T) {
	store := openSeeded(t)

	tables, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tables) != 4 {
		t.Fatalf("expected 4 tables, got %d", len(tables))
	}

	times := tables[rankings.SourceTimes]
	if times.Len() != 3 {
		t.Fatalf("expected 3 times rows, got %d", times.Len())
	}
	if times.Period(0) != 2023 {
		t.Fatalf("expected rows ordered by period, first is %d", times.Period(0))
	}
	if times.Institution(1) != "New Jersey Institute of Technology" {
		t.Fatalf("expected rows ordered by institution within a period, got %q", times.Institution(1))
	}
	if times.Region(1) != "Yes" {
		t.Fatalf("unexpected region token %q", times.Region(1))
	}
	if got, _ := times.Value(1, "Times_Rank").Text(); got != "601-800" {
		t.Fatalf("expected bucketed rank kept as text, got %q", got)
	}
	if got, _ := times.Value(1, "Overall").Float(); got != 45.2 {
		t.Fatalf("expected numeric overall, got %v", got)
	}
	if !times.Value(0, "Overall").IsMissing() {
		t.Fatal("expected NULL cell to load as missing")
	}
	if tables[rankings.SourceWashington].Len() != 0 {
		t.Fatal("expected unseeded table to load empty")
	}
}

func TestStoreLoadRequiresSharedColumns(t *testing.T) {
	store := openSeeded(t)
	mustExec(t, store.DB(), `DROP TABLE "qs_rankings"`)
	mustExec(t, store.DB(), `CREATE TABLE "qs_rankings" ("Year" INTEGER, "QS_Rank" TEXT)`)

	_, err := store.Load(context.Background())
	if err == nil {
		t.Fatal("expected load error")
	}
	var missing rankings.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if missing.Source != rankings.SourceQS || missing.Column != rankings.ColumnInstitution {
		t.Fatalf("unexpected error detail: %+v", missing)
	}
}

func TestStorePeerGroups(t *testing.T) {
	store := openSeeded(t)

	groups, err := store.PeerGroups(context.Background())
	if err != nil {
		t.Fatalf("PeerGroups on empty table: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %v", groups)
	}

	mustExec(t, store.DB(), `INSERT INTO "peer_groups" ("PEER_TYPE", "PEER_NAME") VALUES ('regional', 'Rutgers University-Newark')`)
	mustExec(t, store.DB(), `INSERT INTO "peer_groups" ("PEER_TYPE", "PEER_NAME") VALUES ('aspirational', 'Virginia Tech')`)
	mustExec(t, store.DB(), `INSERT INTO "peer_groups" ("PEER_TYPE", "PEER_NAME") VALUES ('aspirational', 'Georgia Institute of Technology')`)

	groups, err = store.PeerGroups(context.Background())
	if err != nil {
		t.Fatalf("PeerGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "aspirational" {
		t.Fatalf("expected groups ordered by name, got %q first", groups[0].Name)
	}
	if groups[0].Members[0] != "Georgia Institute of Technology" {
		t.Fatalf("expected members ordered by name, got %q first", groups[0].Members[0])
	}
}

func TestStoreSkipsRowsWithEmptyInstitution(t *testing.T) {
	store := openSeeded(t)
	mustExec(t, store.DB(), `INSERT INTO "usnews_rankings" ("Year", "IPEDS_Name", "Rank") VALUES (2024, '   ', '86')`)

	tables, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tables[rankings.SourceUSNews].Len(); got != 0 {
		t.Fatalf("expected blank institution dropped, got %d rows", got)
	}
}
