// Package core implements the comparative ranking service: reconciliation
// across the four agency tables, period and pair filtering, rank-range
// normalization, and total metric lookup. Query operations work on an
// immutable table snapshot; Reload is the only state transition.
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"rankcore/pkg/rankings"
)

// Service exposes the comparative ranking operations over the loaded agency
// tables. All query methods are read-only and total; Reload swaps the table
// snapshot wholesale and bumps the version counter.
type Service struct {
	mu sync.RWMutex

	source rankings.TableSource

	tables map[rankings.Source]rankings.Table
	peers  []rankings.PeerGroup

	version     uint64
	fingerprint string

	common        []string
	commonVersion uint64

	anchor   string
	profiles map[rankings.Source]rankings.Profile

	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// ServiceOption customises service construction.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger to the service.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for metrics and audit stamps.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetricsRecorder attaches an operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer attaches a tracer that receives one span per operation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditRecorder attaches a sink for reload audit entries.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithAnchor overrides the anchor institution every comparison is made
// against.
func WithAnchor(anchor string) ServiceOption {
	return func(s *Service) {
		if anchor != "" {
			s.anchor = anchor
		}
	}
}

// WithProfiles replaces the built-in source profiles. Sources absent from
// the map keep their defaults.
func WithProfiles(profiles map[rankings.Source]rankings.Profile) ServiceOption {
	return func(s *Service) {
		for src, p := range profiles {
			s.profiles[src] = p.Clone()
		}
	}
}

// NewService constructs a service reading tables from the supplied source.
// The service starts empty; call Reload to populate it.
func NewService(source rankings.TableSource, opts ...ServiceOption) *Service {
	s := &Service{
		source:   source,
		tables:   make(map[rankings.Source]rankings.Table),
		anchor:   rankings.DefaultAnchor,
		profiles: rankings.DefaultProfiles(),
		logger:   noopLogger{},
		clock:    systemClock{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		audit:    noopAudit{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a static table set, already
// loaded. Intended for tests and embedded use.
func NewInMemoryService(tables map[rankings.Source]rankings.Table, opts ...ServiceOption) *Service {
	s := NewService(NewStaticTableSource(tables, nil), opts...)
	s.apply(tables, nil)
	return s
}

// Source returns the table source the service reloads from.
func (s *Service) Source() rankings.TableSource {
	return s.source
}

// Reload reads every table from the source and swaps the snapshot
// atomically. On failure the previous snapshot stays in place.
func (s *Service) Reload(ctx context.Context) error {
	ctx, done := s.begin(ctx, "reload")
	started := s.clock.Now()

	tables, err := s.source.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load tables: %w", err)
		s.logger.Error("table reload failed", "error", err)
		s.recordReloadAudit(ctx, started, err)
		done(err)
		return err
	}
	peers, err := s.source.PeerGroups(ctx)
	if err != nil {
		err = fmt.Errorf("load peer groups: %w", err)
		s.logger.Error("table reload failed", "error", err)
		s.recordReloadAudit(ctx, started, err)
		done(err)
		return err
	}

	version, fingerprint := s.apply(tables, peers)
	s.logger.Info("tables reloaded",
		"version", version,
		"fingerprint", fingerprint,
		"sources", len(tables),
		"peer_groups", len(peers),
	)
	s.recordReloadAudit(ctx, started, nil)
	done(nil)
	return nil
}

// apply installs a new snapshot, bumping the version and recomputing the
// content fingerprint.
func (s *Service) apply(tables map[rankings.Source]rankings.Table, peers []rankings.PeerGroup) (uint64, string) {
	installed := make(map[rankings.Source]rankings.Table, len(tables))
	for src, table := range tables {
		installed[src] = table
	}
	cloned := make([]rankings.PeerGroup, len(peers))
	for i, g := range peers {
		cloned[i] = g.Clone()
	}
	fingerprint := fingerprintTables(installed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = installed
	s.peers = cloned
	s.version++
	s.fingerprint = fingerprint
	return s.version, s.fingerprint
}

func (s *Service) recordReloadAudit(ctx context.Context, started time.Time, err error) {
	entry := AuditEntry{
		Operation: "reload",
		Status:    AuditStatusSuccess,
		Duration:  s.clock.Now().Sub(started),
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	} else {
		entry.Version = s.Version()
		entry.Fingerprint = s.Fingerprint()
	}
	s.audit.Record(ctx, entry)
}

// snapshot returns the current table map. Tables are immutable and the map
// is never mutated after install, so callers may hold it past the lock.
func (s *Service) snapshot() map[rankings.Source]rankings.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

// Table returns the loaded table for a source. The second result is false
// when the source has not been loaded.
func (s *Service) Table(source rankings.Source) (rankings.Table, bool) {
	tables := s.snapshot()
	t, ok := tables[source]
	return t, ok
}

// Version returns the snapshot version counter. It starts at zero and is
// bumped on every reload; cached derivations key off it.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Fingerprint returns the content hash of the current snapshot, empty
// before the first load. HTTP adapters use it as an ETag.
func (s *Service) Fingerprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint
}

// Anchor returns the anchor institution comparisons are made against.
func (s *Service) Anchor() string {
	return s.anchor
}

// Profile returns the schema profile for a source.
func (s *Service) Profile(source rankings.Source) (rankings.Profile, bool) {
	p, ok := s.profiles[source]
	if !ok {
		return rankings.Profile{}, false
	}
	return p.Clone(), true
}

// Profiles returns every source profile keyed by source.
func (s *Service) Profiles() map[rankings.Source]rankings.Profile {
	out := make(map[rankings.Source]rankings.Profile, len(s.profiles))
	for src, p := range s.profiles {
		out[src] = p.Clone()
	}
	return out
}

// Periods returns the sorted ascending union of periods across all loaded
// sources.
func (s *Service) Periods(ctx context.Context) []int {
	_, done := s.begin(ctx, "periods")
	defer done(nil)

	tables := s.snapshot()
	seen := map[int]struct{}{}
	var out []int
	for _, src := range rankings.Sources() {
		table, ok := tables[src]
		if !ok {
			continue
		}
		for _, p := range table.Periods() {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// PeerGroups returns the loaded peer groups in file order.
func (s *Service) PeerGroups(ctx context.Context) []rankings.PeerGroup {
	_, done := s.begin(ctx, "peer_groups")
	defer done(nil)

	s.mu.RLock()
	peers := s.peers
	s.mu.RUnlock()

	out := make([]rankings.PeerGroup, len(peers))
	for i, g := range peers {
		out[i] = g.Clone()
	}
	return out
}

// PeerGroupMembers returns the member institutions of a named peer group.
// The second result is false when the group is unknown.
func (s *Service) PeerGroupMembers(ctx context.Context, name string) ([]string, bool) {
	_, done := s.begin(ctx, "peer_group_members")
	defer done(nil)

	s.mu.RLock()
	peers := s.peers
	s.mu.RUnlock()

	for _, g := range peers {
		if g.Name == name {
			return append([]string(nil), g.Members...), true
		}
	}
	return nil, false
}

// ServiceStats summarises the loaded snapshot.
type ServiceStats struct {
	Version     uint64                  `json:"version"`
	Fingerprint string                  `json:"fingerprint,omitempty"`
	RowCounts   map[rankings.Source]int `json:"row_counts"`
	PeerGroups  int                     `json:"peer_groups"`
	Periods     []int                   `json:"periods"`
	Common      int                     `json:"common_institutions"`
}

// Stats reports snapshot-level counters for diagnostics endpoints.
func (s *Service) Stats(ctx context.Context) ServiceStats {
	common := s.CommonInstitutions(ctx)

	s.mu.RLock()
	stats := ServiceStats{
		Version:     s.version,
		Fingerprint: s.fingerprint,
		RowCounts:   make(map[rankings.Source]int, len(s.tables)),
		PeerGroups:  len(s.peers),
		Common:      len(common),
	}
	for src, table := range s.tables {
		stats.RowCounts[src] = table.Len()
	}
	s.mu.RUnlock()

	stats.Periods = s.Periods(ctx)
	return stats
}

// fingerprintTables hashes the table set deterministically: sources in
// canonical order, rows in table order, columns in declared order.
func fingerprintTables(tables map[rankings.Source]rankings.Table) string {
	h := sha256.New()
	for _, src := range rankings.Sources() {
		table, ok := tables[src]
		if !ok {
			continue
		}
		cols := table.Columns()
		fmt.Fprintf(h, "source=%s rows=%d columns=%v\n", src, table.Len(), cols)
		for i := 0; i < table.Len(); i++ {
			fmt.Fprintf(h, "%s|%d|%s", table.Institution(i), table.Period(i), table.Region(i))
			for _, col := range cols {
				v := table.Value(i, col)
				text, _ := v.AsString()
				fmt.Fprintf(h, "|%s=%s:%s", col, v.Kind(), text)
			}
			fmt.Fprintln(h)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
