// Package postgres reads the agency ranking tables from a Postgres
// database, applying the derived schema bundle on startup so a fresh
// database serves empty tables.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"rankcore/internal/schema"
	"rankcore/internal/schema/sqlbundle"
	"rankcore/pkg/rankings"
)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with the source factory defaults while
	// allowing overrides via env.
	defaultDSN = "postgres://localhost/rankcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store serves one relational table per source from Postgres. It never
// writes ranking rows; fixtures and operators own the data.
type Store struct {
	db       *sql.DB
	profiles map[rankings.Source]rankings.Profile
}

var _ rankings.TableSource = (*Store)(nil)

// NewStore opens a Postgres connection using the provided DSN (falls back
// to defaultDSN), pings it, and applies the schema bundle. The database/sql
// driver name comes from RANKCORE_POSTGRES_DRIVER when set, for pgx
// stand-ins in constrained environments.
func NewStore(ctx context.Context, dsn string, profiles map[rankings.Source]rankings.Profile) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	driverName := os.Getenv("RANKCORE_POSTGRES_DRIVER")
	if driverName == "" {
		driverName = defaultDriver
	}
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	cloned := make(map[rankings.Source]rankings.Profile, len(profiles))
	for src, p := range profiles {
		cloned[src] = p.Clone()
	}
	s := &Store{db: db, profiles: cloned}
	if err := s.applySchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	ddl := sqlbundle.Bundle(sqlbundle.DialectPostgres, s.profiles)
	for _, stmt := range sqlbundle.SplitStatements(ddl) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle for fixtures and maintenance tooling.
func (s *Store) DB() *sql.DB { return s.db }

// Load implements rankings.TableSource.
func (s *Store) Load(ctx context.Context) (map[rankings.Source]rankings.Table, error) {
	out := make(map[rankings.Source]rankings.Table, len(s.profiles))
	for _, src := range rankings.Sources() {
		profile, ok := s.profiles[src]
		if !ok {
			continue
		}
		table, err := loadTable(ctx, s.db, src, profile)
		if err != nil {
			return nil, err
		}
		out[src] = table
	}
	return out, nil
}

// loadTable reads one source table. Relational rows carry no publication
// order, so rows sort by period then institution to keep snapshots and
// fingerprints deterministic.
func loadTable(ctx context.Context, db *sql.DB, src rankings.Source, profile rankings.Profile) (rankings.Table, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s, %s",
		sqlbundle.QuoteIdent(profile.TableName),
		sqlbundle.QuoteIdent(rankings.ColumnPeriod),
		sqlbundle.QuoteIdent(rankings.ColumnInstitution))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return rankings.Table{}, fmt.Errorf("query %s: %w", profile.TableName, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return rankings.Table{}, fmt.Errorf("columns %s: %w", profile.TableName, err)
	}
	periodIdx, instIdx := -1, -1
	for i, name := range cols {
		switch name {
		case rankings.ColumnPeriod:
			if periodIdx < 0 {
				periodIdx = i
			}
		case rankings.ColumnInstitution:
			if instIdx < 0 {
				instIdx = i
			}
		}
	}
	if periodIdx < 0 {
		return rankings.Table{}, rankings.MissingColumnError{Source: src, Column: rankings.ColumnPeriod}
	}
	if instIdx < 0 {
		return rankings.Table{}, rankings.MissingColumnError{Source: src, Column: rankings.ColumnInstitution}
	}

	var metricCols []string
	var metricIdx []int
	for i, name := range cols {
		if i == periodIdx || i == instIdx {
			continue
		}
		metricCols = append(metricCols, name)
		metricIdx = append(metricIdx, i)
	}

	var recs []rankings.Record
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return rankings.Table{}, fmt.Errorf("scan %s: %w", profile.TableName, err)
		}
		institution := strings.TrimSpace(cells[instIdx].String)
		if institution == "" {
			continue
		}
		period, err := strconv.Atoi(strings.TrimSpace(cells[periodIdx].String))
		if err != nil {
			return rankings.Table{}, fmt.Errorf("table %s: invalid period %q", profile.TableName, cells[periodIdx].String)
		}

		rec := rankings.Record{
			Institution: institution,
			Period:      period,
			Metrics:     make(map[string]rankings.Value, len(metricIdx)),
		}
		for j, col := range metricCols {
			cell := cells[metricIdx[j]]
			if !cell.Valid {
				rec.Metrics[col] = rankings.MissingValue()
				continue
			}
			rec.Metrics[col] = rankings.ParseValue(strings.TrimSpace(cell.String))
		}
		if profile.RegionColumn != "" {
			if text, ok := rec.Metrics[profile.RegionColumn].AsString(); ok {
				rec.Region = text
			}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return rankings.Table{}, fmt.Errorf("iterate %s: %w", profile.TableName, err)
	}
	return rankings.NewTable(src, metricCols, recs), nil
}

// PeerGroups implements rankings.TableSource. Rows sort by group then
// member for the same determinism reason as loadTable.
func (s *Store) PeerGroups(ctx context.Context) ([]rankings.PeerGroup, error) {
	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s, %s",
		sqlbundle.QuoteIdent(rankings.ColumnPeerType),
		sqlbundle.QuoteIdent(rankings.ColumnPeerName),
		sqlbundle.QuoteIdent(schema.PeerTableName),
		sqlbundle.QuoteIdent(rankings.ColumnPeerType),
		sqlbundle.QuoteIdent(rankings.ColumnPeerName))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", schema.PeerTableName, err)
	}
	defer rows.Close()

	var order []string
	members := map[string][]string{}
	for rows.Next() {
		var group, member sql.NullString
		if err := rows.Scan(&group, &member); err != nil {
			return nil, fmt.Errorf("scan %s: %w", schema.PeerTableName, err)
		}
		g := strings.TrimSpace(group.String)
		m := strings.TrimSpace(member.String)
		if g == "" || m == "" {
			continue
		}
		if _, ok := members[g]; !ok {
			order = append(order, g)
		}
		members[g] = append(members[g], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", schema.PeerTableName, err)
	}

	groups := make([]rankings.PeerGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, rankings.PeerGroup{Name: name, Members: members[name]})
	}
	return groups, nil
}

// Close implements rankings.TableSource.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
