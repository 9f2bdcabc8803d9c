package core

import (
	"context"

	"rankcore/pkg/rankings"
)

// FilterSource returns the rows of one source whose period is in the
// selection and whose institution is the anchor or the selection's
// comparator, in table order. An empty period set selects nothing; the
// selection is never mutated, and filtering an already-filtered result
// with the same criteria changes nothing.
func (s *Service) FilterSource(ctx context.Context, source rankings.Source, sel rankings.Selection) rankings.View {
	_, done := s.begin(ctx, "filter_source")
	defer done(nil)

	table, ok := s.Table(source)
	if !ok {
		return rankings.NewTable(source, nil, nil).View()
	}
	return filterPair(table, s.anchor, sel)
}

// filterPair keeps the rows addressing the anchor/comparator pair inside
// the selected periods.
func filterPair(table rankings.Table, anchor string, sel rankings.Selection) rankings.View {
	periods := sel.PeriodSet()
	return table.Select(func(i int) bool {
		if !periods[table.Period(i)] {
			return false
		}
		name := table.Institution(i)
		return name == anchor || name == sel.Comparator
	})
}

// FilterCombined returns every source's rows restricted to the common
// institutions and the region filter, keyed by source with per-table order
// preserved. Rows whose region token is unrecognised pass only RegionAll.
func (s *Service) FilterCombined(ctx context.Context, filter rankings.RegionFilter) map[rankings.Source]rankings.View {
	_, done := s.begin(ctx, "filter_combined")
	defer done(nil)

	common := s.commonSet()
	tables := s.snapshot()

	out := make(map[rankings.Source]rankings.View, len(tables))
	for _, src := range rankings.Sources() {
		table, ok := tables[src]
		if !ok {
			continue
		}
		profile := s.profiles[src]
		out[src] = table.Select(func(i int) bool {
			if _, shared := common[table.Institution(i)]; !shared {
				return false
			}
			switch filter {
			case rankings.RegionInOnly:
				return table.Region(i) == profile.InRegionToken
			case rankings.RegionOutOnly:
				return table.Region(i) == profile.OutRegionToken
			}
			return true
		})
	}
	return out
}

// CommonInstitutionsFiltered returns the common institutions passing the
// region filter, anchor excluded, sorted ascending. An institution's
// region token is read from its first row in canonical source order.
func (s *Service) CommonInstitutionsFiltered(ctx context.Context, filter rankings.RegionFilter) []string {
	_, done := s.begin(ctx, "common_institutions_filtered")
	defer done(nil)

	tables := s.snapshot()
	out := []string{}
	for _, name := range s.commonInstitutions() {
		if name == s.anchor {
			continue
		}
		if filter != rankings.RegionAll && !s.regionMatches(tables, name, filter) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// regionMatches resolves an institution's region token from its first row
// across sources and tests it against the filter. Unknown tokens match
// neither restricted state.
func (s *Service) regionMatches(tables map[rankings.Source]rankings.Table, name string, filter rankings.RegionFilter) bool {
	for _, src := range rankings.Sources() {
		table, ok := tables[src]
		if !ok {
			continue
		}
		profile := s.profiles[src]
		for i := 0; i < table.Len(); i++ {
			if table.Institution(i) != name {
				continue
			}
			switch filter {
			case rankings.RegionInOnly:
				return table.Region(i) == profile.InRegionToken
			case rankings.RegionOutOnly:
				return table.Region(i) == profile.OutRegionToken
			}
			return true
		}
	}
	return false
}
