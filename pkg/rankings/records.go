// Package rankings defines the core value types for the comparative
// university-rankings layer: the four agency sources, immutable ranking
// tables, filtered views, rank-range parsing, and per-source metric
// profiles.
package rankings

import (
	"sort"
	"strings"
)

// Source identifies one of the four ranking agencies feeding the system.
type Source string

// Supported ranking sources. The set is fixed; reconciliation requires an
// institution to appear in all four.
const (
	// SourceTimes identifies the Times Higher Education dataset.
	SourceTimes Source = "times"
	// SourceQS identifies the QS World University Rankings dataset.
	SourceQS Source = "qs"
	// SourceUSNews identifies the U.S. News dataset.
	SourceUSNews Source = "usnews"
	// SourceWashington identifies the Washington Monthly dataset.
	SourceWashington Source = "washington"
)

// Sources returns the four ranking sources in canonical order.
func Sources() []Source {
	return []Source{SourceTimes, SourceQS, SourceUSNews, SourceWashington}
}

// ParseSource resolves a source token. It accepts the canonical value in any
// case plus the short alias "usn".
func ParseSource(raw string) (Source, error) {
	switch normalizeSourceToken(raw) {
	case string(SourceTimes):
		return SourceTimes, nil
	case string(SourceQS):
		return SourceQS, nil
	case string(SourceUSNews), "usn":
		return SourceUSNews, nil
	case string(SourceWashington):
		return SourceWashington, nil
	}
	return "", UnknownSourceError{Name: raw}
}

func normalizeSourceToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Record is one row of an agency table: an institution observed by one
// source in one period, with that source's metric columns.
type Record struct {
	Institution string           `json:"institution"`
	Period      int              `json:"period"`
	Region      string           `json:"region,omitempty"`
	Metrics     map[string]Value `json:"metrics,omitempty"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Metrics != nil {
		out.Metrics = make(map[string]Value, len(r.Metrics))
		for k, v := range r.Metrics {
			out.Metrics[k] = v
		}
	}
	return out
}

// Metric returns the record's value for a physical column, Missing when the
// column is absent.
func (r Record) Metric(column string) Value {
	if r.Metrics == nil {
		return MissingValue()
	}
	v, ok := r.Metrics[column]
	if !ok {
		return MissingValue()
	}
	return v
}

// Table is an immutable, ordered row collection for a single source. Rows
// are deep-copied on construction and on access; a loaded table is never
// mutated in place, it is replaced wholesale on reload.
type Table struct {
	source  Source
	columns []string
	colSet  map[string]struct{}
	rows    []Record
}

// NewTable builds a table from rows. Columns carry the source's physical
// column order; when nil the column set is derived from the rows.
func NewTable(source Source, columns []string, rows []Record) Table {
	t := Table{source: source}
	if len(columns) > 0 {
		t.columns = append([]string(nil), columns...)
	} else {
		t.columns = deriveColumns(rows)
	}
	t.colSet = make(map[string]struct{}, len(t.columns))
	for _, c := range t.columns {
		t.colSet[c] = struct{}{}
	}
	t.rows = make([]Record, len(rows))
	for i, r := range rows {
		t.rows[i] = r.Clone()
	}
	return t
}

func deriveColumns(rows []Record) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, r := range rows {
		for c := range r.Metrics {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return cols
}

// Source returns the agency this table belongs to.
func (t Table) Source() Source { return t.source }

// Len returns the number of rows.
func (t Table) Len() int { return len(t.rows) }

// Columns returns a copy of the physical column names.
func (t Table) Columns() []string { return append([]string(nil), t.columns...) }

// HasColumn reports whether the table carries a physical column.
func (t Table) HasColumn(column string) bool {
	_, ok := t.colSet[column]
	return ok
}

// Institution returns row i's institution identifier.
func (t Table) Institution(i int) string { return t.rows[i].Institution }

// Period returns row i's period.
func (t Table) Period(i int) int { return t.rows[i].Period }

// Region returns row i's raw region token.
func (t Table) Region(i int) string { return t.rows[i].Region }

// Value returns row i's value for a physical column, Missing when the
// column is unknown or the stored value is missing.
func (t Table) Value(i int, column string) Value {
	return t.rows[i].Metric(column)
}

// Record returns a deep copy of row i.
func (t Table) Record(i int) Record { return t.rows[i].Clone() }

// Records returns deep copies of all rows in table order.
func (t Table) Records() []Record {
	out := make([]Record, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// Institutions returns the distinct institution identifiers in first
// appearance order.
func (t Table) Institutions() []string {
	return t.View().Institutions()
}

// Periods returns the distinct periods in first appearance order.
func (t Table) Periods() []int {
	return t.View().Periods()
}

// View returns a view spanning every row of the table.
func (t Table) View() View {
	idx := make([]int, len(t.rows))
	for i := range idx {
		idx[i] = i
	}
	return View{table: t, idx: idx}
}

// Select returns a view of the rows for which keep returns true, preserving
// table order.
func (t Table) Select(keep func(i int) bool) View {
	var idx []int
	for i := range t.rows {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return View{table: t, idx: idx}
}

// View is an ordered, index-based subset of a table. Views share the
// underlying table and copy no rows; refining a view allocates only a new
// index list.
type View struct {
	table Table
	idx   []int
}

// Source returns the agency of the underlying table.
func (v View) Source() Source { return v.table.source }

// Len returns the number of rows in the view.
func (v View) Len() int { return len(v.idx) }

// Institution returns view row i's institution identifier.
func (v View) Institution(i int) string { return v.table.Institution(v.idx[i]) }

// Period returns view row i's period.
func (v View) Period(i int) int { return v.table.Period(v.idx[i]) }

// Region returns view row i's raw region token.
func (v View) Region(i int) string { return v.table.Region(v.idx[i]) }

// Value returns view row i's value for a physical column, Missing when the
// column is unknown or the stored value is missing.
func (v View) Value(i int, column string) Value { return v.table.Value(v.idx[i], column) }

// Record returns a deep copy of view row i.
func (v View) Record(i int) Record { return v.table.Record(v.idx[i]) }

// Records returns deep copies of the view's rows in view order.
func (v View) Records() []Record {
	out := make([]Record, len(v.idx))
	for i, j := range v.idx {
		out[i] = v.table.Record(j)
	}
	return out
}

// Select returns a refined view of the rows for which keep returns true,
// preserving view order. Indices passed to keep are view-relative.
func (v View) Select(keep func(i int) bool) View {
	var idx []int
	for i, j := range v.idx {
		if keep(i) {
			idx = append(idx, j)
		}
	}
	return View{table: v.table, idx: idx}
}

// Institutions returns the view's distinct institution identifiers in first
// appearance order.
func (v View) Institutions() []string {
	seen := map[string]struct{}{}
	var out []string
	for i := range v.idx {
		name := v.Institution(i)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Periods returns the view's distinct periods in first appearance order.
func (v View) Periods() []int {
	seen := map[int]struct{}{}
	var out []int
	for i := range v.idx {
		p := v.Period(i)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
