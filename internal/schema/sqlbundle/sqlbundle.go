// Package sqlbundle renders deterministic DDL bundles for the ranking
// schema, one per SQL dialect.
package sqlbundle

import (
	"bufio"
	"fmt"
	"strings"

	"rankcore/internal/schema"
	"rankcore/pkg/rankings"
)

// Dialect selects the SQL flavor a bundle targets.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// QuoteIdent wraps an identifier in double quotes, escaping embedded
// quotes. Agency column names carry spaces, dollar signs, and slashes, so
// every identifier is quoted unconditionally.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnSQL(c schema.Column) string {
	sql := QuoteIdent(c.Name) + " " + string(c.Type)
	if c.Required {
		sql += " NOT NULL"
	}
	return sql
}

// CreateTableSQL renders one CREATE TABLE IF NOT EXISTS statement. The two
// dialects agree on this subset, so the dialect only matters to callers
// assembling full bundles.
func CreateTableSQL(t schema.Table, _ Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdent(t.Name))
	for i, c := range t.Columns {
		b.WriteString("    " + columnSQL(c))
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

// Bundle renders the full DDL for every source table plus the peer table,
// in canonical source order, separated by blank lines.
func Bundle(dialect Dialect, profiles map[rankings.Source]rankings.Profile) string {
	tables := schema.All(profiles)
	tables = append(tables, schema.PeerTable())
	stmts := make([]string, 0, len(tables)+1)
	stmts = append(stmts, fmt.Sprintf("-- rankcore %s schema", dialect))
	for _, t := range tables {
		stmts = append(stmts, CreateTableSQL(t, dialect))
	}
	return strings.Join(stmts, "\n\n") + "\n"
}

// SQLite returns the DDL bundle for the built-in profiles on SQLite.
func SQLite() string {
	return Bundle(DialectSQLite, rankings.DefaultProfiles())
}

// Postgres returns the DDL bundle for the built-in profiles on Postgres.
func Postgres() string {
	return Bundle(DialectPostgres, rankings.DefaultProfiles())
}

// SplitStatements splits a semicolon-terminated DDL script into executable statements.
// It drops blank lines and single-line comments that start with "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}
