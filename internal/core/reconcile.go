package core

import (
	"context"
	"sort"

	"rankcore/pkg/rankings"
)

// CommonInstitutions returns the institutions present in every source
// table, sorted ascending. The result is empty when any source table is
// missing or empty. The set is cached and recomputed only after a reload
// changes the snapshot version.
func (s *Service) CommonInstitutions(ctx context.Context) []string {
	_, done := s.begin(ctx, "common_institutions")
	defer done(nil)
	return append([]string(nil), s.commonInstitutions()...)
}

// commonInstitutions serves the cached intersection, computing it at most
// once per snapshot version.
func (s *Service) commonInstitutions() []string {
	s.mu.RLock()
	if s.common != nil && s.commonVersion == s.version {
		cached := s.common
		s.mu.RUnlock()
		return cached
	}
	tables := s.tables
	version := s.version
	s.mu.RUnlock()

	common := intersectInstitutions(tables)

	s.mu.Lock()
	if s.version == version {
		s.common = common
		s.commonVersion = version
	}
	s.mu.Unlock()
	return common
}

// commonSet returns the common institutions as a membership set.
func (s *Service) commonSet() map[string]struct{} {
	common := s.commonInstitutions()
	set := make(map[string]struct{}, len(common))
	for _, name := range common {
		set[name] = struct{}{}
	}
	return set
}

// intersectInstitutions computes the institutions shared by all four
// sources. Matching is case-sensitive on the reconciled identifier. The
// result is never nil, so a computed empty set still caches.
func intersectInstitutions(tables map[rankings.Source]rankings.Table) []string {
	srcs := rankings.Sources()
	sets := make([]map[string]struct{}, 0, len(srcs))
	for _, src := range srcs {
		table, ok := tables[src]
		if !ok || table.Len() == 0 {
			return []string{}
		}
		set := make(map[string]struct{}, table.Len())
		for _, name := range table.Institutions() {
			set[name] = struct{}{}
		}
		sets = append(sets, set)
	}

	common := []string{}
	for name := range sets[0] {
		member := true
		for _, set := range sets[1:] {
			if _, ok := set[name]; !ok {
				member = false
				break
			}
		}
		if member {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

// Extras returns the institutions one source covers beyond the common set,
// anchor excluded, sorted ascending. Each source's extras are independent.
func (s *Service) Extras(ctx context.Context, source rankings.Source) []string {
	_, done := s.begin(ctx, "extras")
	defer done(nil)

	table, ok := s.Table(source)
	if !ok {
		return []string{}
	}
	common := s.commonSet()

	extras := []string{}
	for _, name := range table.Institutions() {
		if name == s.anchor {
			continue
		}
		if _, shared := common[name]; shared {
			continue
		}
		extras = append(extras, name)
	}
	sort.Strings(extras)
	return extras
}
