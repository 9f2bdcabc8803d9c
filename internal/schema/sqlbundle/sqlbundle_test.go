package sqlbundle

import (
	"strings"
	"testing"

	"rankcore/internal/schema"
	"rankcore/pkg/rankings"
)

func TestQuoteIdent(t *testing.T) {
	cases := map[string]string{
		"Year":                  `"Year"`,
		"Peer assessment score": `"Peer assessment score"`,
		`odd"name`:              `"odd""name"`,
	}
	for in, want := range cases {
		if got := QuoteIdent(in); got != want {
			t.Fatalf("QuoteIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateTableQuotesAwkwardColumns(t *testing.T) {
	profiles := rankings.DefaultProfiles()
	ddl := CreateTableSQL(schema.ForProfile(profiles[rankings.SourceWashington]), DialectSQLite)

	for _, col := range []string{
		`"Net_price_of_attendance_for_families_below_$75,000_income"`,
		`"8-year_graduation_rate"`,
		`"Science_&_engineering_PhDs_awarded"`,
	} {
		if !strings.Contains(ddl, col) {
			t.Fatalf("DDL missing quoted column %s:\n%s", col, ddl)
		}
	}
	if !strings.Contains(ddl, `"Year" INTEGER NOT NULL`) {
		t.Fatalf("DDL missing required period column:\n%s", ddl)
	}
}

func TestBundleCoversAllTables(t *testing.T) {
	bundle := Bundle(DialectSQLite, rankings.DefaultProfiles())
	for _, name := range []string{"times_rankings", "qs_rankings", "usnews_rankings", "washington_rankings", schema.PeerTableName} {
		if !strings.Contains(bundle, QuoteIdent(name)) {
			t.Fatalf("bundle missing table %s", name)
		}
	}
	if bundle != Bundle(DialectSQLite, rankings.DefaultProfiles()) {
		t.Fatalf("bundle rendering is not deterministic")
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements(SQLite())
	if len(stmts) != 5 {
		t.Fatalf("expected 5 statements (four sources plus peers), got %d", len(stmts))
	}
	for _, stmt := range stmts {
		if !strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS") {
			t.Fatalf("unexpected statement prefix: %q", stmt)
		}
	}
}

func TestDialectsAgreeOnStatementCount(t *testing.T) {
	if len(SplitStatements(SQLite())) != len(SplitStatements(Postgres())) {
		t.Fatalf("dialect bundles disagree on statement count")
	}
}
