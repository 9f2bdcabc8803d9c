package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite" // stand-in engine behind the sqlOpen override

	"rankcore/pkg/rankings"
)

// openOverridden routes the pgx open through a SQLite file. The rendered
// DDL subset is common SQL, so the full startup path runs without a
// server.
func openOverridden(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pg.db")
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("unexpected driver %q", driverName)
		}
		return sql.Open("sqlite", path)
	})
	t.Cleanup(restore)

	store, err := NewStore(context.Background(), "", rankings.DefaultProfiles())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %s: %v", query, err)
	}
}

func TestNewStoreAppliesSchema(t *testing.T) {
	store := openOverridden(t)

	tables, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on fresh database: %v", err)
	}
	if len(tables) != 4 {
		t.Fatalf("expected 4 tables, got %d", len(tables))
	}
	for src, table := range tables {
		if table.Len() != 0 {
			t.Fatalf("expected empty %s table, got %d rows", src, table.Len())
		}
	}
	groups, err := store.PeerGroups(context.Background())
	if err != nil {
		t.Fatalf("PeerGroups on fresh database: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no peer groups, got %v", groups)
	}
}

func TestStoreLoadDecodesRows(t *testing.T) {
	store := openOverridden(t)

	mustExec(t, store.DB(), `INSERT INTO "washington_rankings" ("Year", "IPEDS_Name", "New_Jersey_University", "Washington_Rank")
		VALUES (2024, 'New Jersey Institute of Technology', 'Yes', '112')`)
	mustExec(t, store.DB(), `INSERT INTO "washington_rankings" ("Year", "IPEDS_Name", "New_Jersey_University", "Washington_Rank")
		VALUES (2023, 'New Jersey Institute of Technology', 'Yes', '120')`)

	tables, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wm := tables[rankings.SourceWashington]
	if wm.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", wm.Len())
	}
	if wm.Period(0) != 2023 || wm.Period(1) != 2024 {
		t.Fatalf("expected rows ordered by period, got %d then %d", wm.Period(0), wm.Period(1))
	}
	if wm.Region(0) != "Yes" {
		t.Fatalf("unexpected region token %q", wm.Region(0))
	}
	if got, _ := wm.Value(1, "Washington_Rank").Float(); got != 112 {
		t.Fatalf("expected numeric rank 112, got %v", got)
	}
	if !wm.Value(0, "8-year_graduation_rate").IsMissing() {
		t.Fatal("expected NULL cell to load as missing")
	}
}

func TestNewStoreDefaultsDSN(t *testing.T) {
	var gotDSN string
	restore := OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return sql.Open("sqlite", filepath.Join(t.TempDir(), "dsn.db"))
	})
	defer restore()

	store, err := NewStore(context.Background(), "", rankings.DefaultProfiles())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	if gotDSN != defaultDSN {
		t.Fatalf("expected default DSN, got %q", gotDSN)
	}
}

func TestNewStoreOpenError(t *testing.T) {
	boom := errors.New("refused")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, boom })
	defer restore()

	_, err := NewStore(context.Background(), "postgres://example/rankings", rankings.DefaultProfiles())
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped open error, got %v", err)
	}
	if !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open postgres context, got %v", err)
	}
}

func TestNewStoreHonorsDriverEnv(t *testing.T) {
	t.Setenv("RANKCORE_POSTGRES_DRIVER", "pgx-standin")
	var gotDriver string
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		gotDriver = driverName
		return sql.Open("sqlite", filepath.Join(t.TempDir(), "drv.db"))
	})
	defer restore()

	store, err := NewStore(context.Background(), "", rankings.DefaultProfiles())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	if gotDriver != "pgx-standin" {
		t.Fatalf("expected env driver name, got %q", gotDriver)
	}
}

func TestNewStorePingError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open("sqlite", filepath.Join(t.TempDir(), "no-such-dir", "x.db"))
	})
	defer restore()

	_, err := NewStore(context.Background(), "", rankings.DefaultProfiles())
	if err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}
