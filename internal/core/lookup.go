package core

import (
	"context"
	"fmt"
	"sort"

	"rankcore/pkg/rankings"
)

// UnknownMetricError reports a logical metric key absent from a source's
// profile catalog.
type UnknownMetricError struct {
	Source rankings.Source
	Metric string
}

func (e UnknownMetricError) Error() string {
	return fmt.Sprintf("source %s: unknown metric %q", e.Source, e.Metric)
}

// MetricValue returns the first matching institution row's value for a
// physical column. It is total: no matching row, an unknown column, or an
// absent stored value all yield Missing.
func (s *Service) MetricValue(ctx context.Context, view rankings.View, institution, column string) rankings.Value {
	_, done := s.begin(ctx, "metric_value")
	defer done(nil)
	return metricValue(view, institution, column)
}

func metricValue(view rankings.View, institution, column string) rankings.Value {
	for i := 0; i < view.Len(); i++ {
		if view.Institution(i) == institution {
			return view.Value(i, column)
		}
	}
	return rankings.MissingValue()
}

// LatestPeriod returns the greatest period present in the view and allowed
// by the caller, nil when the intersection is empty.
func (s *Service) LatestPeriod(ctx context.Context, view rankings.View, allowed []int) *int {
	_, done := s.begin(ctx, "latest_period")
	defer done(nil)
	return latestPeriod(view, allowed)
}

func latestPeriod(view rankings.View, allowed []int) *int {
	set := make(map[int]bool, len(allowed))
	for _, p := range allowed {
		set[p] = true
	}
	var best *int
	for _, p := range view.Periods() {
		if !set[p] {
			continue
		}
		if best == nil || p > *best {
			v := p
			best = &v
		}
	}
	return best
}

// atPeriod narrows a view to one period, or to nothing when the period is
// nil.
func atPeriod(view rankings.View, period *int) rankings.View {
	if period == nil {
		return view.Select(func(int) bool { return false })
	}
	p := *period
	return view.Select(func(i int) bool { return view.Period(i) == p })
}

// MetricPair is one logical metric resolved for the anchor/comparator pair
// at a source's latest selected period.
type MetricPair struct {
	Source     rankings.Source `json:"source"`
	Key        string          `json:"key"`
	Label      string          `json:"label"`
	Column     string          `json:"column"`
	Period     *int            `json:"period"`
	Anchor     rankings.Value  `json:"anchor"`
	Comparator rankings.Value  `json:"comparator"`
}

// LookupMetricPair resolves a logical metric through the source profile and
// reads both institutions' values at the latest period within the
// selection. Values are Missing when no period resolves or no row matches.
func (s *Service) LookupMetricPair(ctx context.Context, source rankings.Source, metricKey string, sel rankings.Selection) (MetricPair, error) {
	ctx, done := s.begin(ctx, "lookup_metric_pair")

	profile, ok := s.Profile(source)
	if !ok {
		err := rankings.UnknownSourceError{Name: string(source)}
		done(err)
		return MetricPair{}, err
	}
	spec, ok := profile.Metric(metricKey)
	if !ok {
		err := UnknownMetricError{Source: source, Metric: metricKey}
		done(err)
		return MetricPair{}, err
	}

	view := s.FilterSource(ctx, source, sel)
	latest := latestPeriod(view, sel.Periods)
	scope := atPeriod(view, latest)

	pair := MetricPair{
		Source:     source,
		Key:        spec.Key,
		Label:      spec.Label,
		Column:     spec.Column,
		Period:     latest,
		Anchor:     metricValue(scope, s.anchor, spec.Column),
		Comparator: metricValue(scope, sel.Comparator, spec.Column),
	}
	done(nil)
	return pair, nil
}

// KPI is one catalog metric resolved for the anchor/comparator pair.
type KPI struct {
	Key        string         `json:"key"`
	Label      string         `json:"label"`
	Column     string         `json:"column"`
	Anchor     rankings.Value `json:"anchor"`
	Comparator rankings.Value `json:"comparator"`
}

// KPIReport carries a source's full metric catalog resolved at its latest
// selected period.
type KPIReport struct {
	Source     rankings.Source `json:"source"`
	Period     *int            `json:"period"`
	Anchor     string          `json:"anchor"`
	Comparator string          `json:"comparator"`
	KPIs       []KPI           `json:"kpis"`
}

// KPIPanel resolves every catalog metric of a source for the pair at the
// source's latest period within the selection. With no resolvable period
// every value is Missing.
func (s *Service) KPIPanel(ctx context.Context, source rankings.Source, sel rankings.Selection) (KPIReport, error) {
	ctx, done := s.begin(ctx, "kpi_panel")

	profile, ok := s.Profile(source)
	if !ok {
		err := rankings.UnknownSourceError{Name: string(source)}
		done(err)
		return KPIReport{}, err
	}

	view := s.FilterSource(ctx, source, sel)
	latest := latestPeriod(view, sel.Periods)
	scope := atPeriod(view, latest)

	report := KPIReport{
		Source:     source,
		Period:     latest,
		Anchor:     s.anchor,
		Comparator: sel.Comparator,
		KPIs:       make([]KPI, 0, len(profile.Metrics)),
	}
	for _, spec := range profile.Metrics {
		report.KPIs = append(report.KPIs, KPI{
			Key:        spec.Key,
			Label:      spec.Label,
			Column:     spec.Column,
			Anchor:     metricValue(scope, s.anchor, spec.Column),
			Comparator: metricValue(scope, sel.Comparator, spec.Column),
		})
	}
	done(nil)
	return report, nil
}

// OverviewEntry is one source's latest-period rank pair.
type OverviewEntry struct {
	Source      rankings.Source `json:"source"`
	DisplayName string          `json:"display_name"`
	Period      *int            `json:"period"`
	Anchor      rankings.Value  `json:"anchor"`
	Comparator  rankings.Value  `json:"comparator"`
}

// OverviewRanks reads both institutions' published rank from every source
// at each source's latest period within the selection, in canonical source
// order. Sources without a resolvable period report Missing ranks.
func (s *Service) OverviewRanks(ctx context.Context, sel rankings.Selection) []OverviewEntry {
	ctx, done := s.begin(ctx, "overview_ranks")
	defer done(nil)

	out := make([]OverviewEntry, 0, len(rankings.Sources()))
	for _, src := range rankings.Sources() {
		profile, ok := s.Profile(src)
		if !ok {
			continue
		}
		view := s.FilterSource(ctx, src, sel)
		latest := latestPeriod(view, sel.Periods)
		scope := atPeriod(view, latest)
		out = append(out, OverviewEntry{
			Source:      src,
			DisplayName: profile.DisplayName,
			Period:      latest,
			Anchor:      metricValue(scope, s.anchor, profile.RankColumn),
			Comparator:  metricValue(scope, sel.Comparator, profile.RankColumn),
		})
	}
	return out
}

// TrendPoint is one period's value in a trend line.
type TrendPoint struct {
	Period int            `json:"period"`
	Value  rankings.Value `json:"value"`
}

// TrendLine is one institution's period-ascending series for a metric.
type TrendLine struct {
	Institution string       `json:"institution"`
	Points      []TrendPoint `json:"points"`
}

// TrendSeries builds chart-ready series for a logical metric: one line per
// pair institution, points sorted period-ascending within the selection.
// For the rank metric each point carries the range midpoint as a number;
// unresolved rank tokens become Missing points.
func (s *Service) TrendSeries(ctx context.Context, source rankings.Source, metricKey string, sel rankings.Selection) ([]TrendLine, error) {
	ctx, done := s.begin(ctx, "trend_series")

	profile, ok := s.Profile(source)
	if !ok {
		err := rankings.UnknownSourceError{Name: string(source)}
		done(err)
		return nil, err
	}
	spec, ok := profile.Metric(metricKey)
	if !ok {
		err := UnknownMetricError{Source: source, Metric: metricKey}
		done(err)
		return nil, err
	}
	isRank := spec.Column == profile.RankColumn

	view := s.FilterSource(ctx, source, sel)

	pair := []string{s.anchor}
	if sel.Comparator != "" && sel.Comparator != s.anchor {
		pair = append(pair, sel.Comparator)
	}

	lines := make([]TrendLine, 0, len(pair))
	for _, institution := range pair {
		seen := map[int]struct{}{}
		points := []TrendPoint{}
		for i := 0; i < view.Len(); i++ {
			if view.Institution(i) != institution {
				continue
			}
			period := view.Period(i)
			if _, dup := seen[period]; dup {
				continue
			}
			seen[period] = struct{}{}

			value := view.Value(i, spec.Column)
			if isRank {
				value = rankMidValue(value)
			}
			points = append(points, TrendPoint{Period: period, Value: value})
		}
		sort.Slice(points, func(a, b int) bool { return points[a].Period < points[b].Period })
		lines = append(lines, TrendLine{Institution: institution, Points: points})
	}
	done(nil)
	return lines, nil
}

// rankMidValue collapses a published rank token to its numeric midpoint so
// bucketed ranks chart alongside exact ones.
func rankMidValue(v rankings.Value) rankings.Value {
	raw, present := v.AsString()
	if !present {
		return rankings.MissingValue()
	}
	rr := rankings.ParseRank(raw)
	if !rr.Resolved() {
		return rankings.MissingValue()
	}
	return rankings.NumberValue(float64(*rr.Mid))
}
