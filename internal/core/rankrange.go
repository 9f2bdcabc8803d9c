package core

import (
	"context"

	"rankcore/pkg/rankings"
)

// RankRow is one surviving row of a rank-range table: the raw published
// token plus its resolved bounds and midpoint.
type RankRow struct {
	Institution string `json:"institution"`
	Period      int    `json:"period"`
	Raw         string `json:"raw"`
	Low         int    `json:"low"`
	High        int    `json:"high"`
	Mid         int    `json:"mid"`
}

// BuildRankRanges resolves a view's rank column into numeric ranges. Rows
// whose value is missing are dropped before parsing and rows whose token
// does not resolve are dropped after; survivors keep view order. Dropped
// rows feed the metrics recorder, never an error.
func (s *Service) BuildRankRanges(ctx context.Context, view rankings.View, column string) []RankRow {
	ctx, done := s.begin(ctx, "build_rank_ranges")
	defer done(nil)

	rows := []RankRow{}
	var missing, unparsable int64
	for i := 0; i < view.Len(); i++ {
		raw, present := view.Value(i, column).AsString()
		if !present {
			missing++
			continue
		}
		rr := rankings.ParseRank(raw)
		if !rr.Resolved() {
			unparsable++
			continue
		}
		rows = append(rows, RankRow{
			Institution: view.Institution(i),
			Period:      view.Period(i),
			Raw:         raw,
			Low:         *rr.Low,
			High:        *rr.High,
			Mid:         *rr.Mid,
		})
	}

	if missing > 0 || unparsable > 0 {
		s.metrics.ObserveDroppedRanks(ctx, view.Source(), column, missing, unparsable)
		s.logger.Debug("rank rows dropped",
			"source", string(view.Source()),
			"column", column,
			"missing", missing,
			"unparsable", unparsable,
		)
	}
	return rows
}

// BuildSourceRankRanges filters one source to the selection pair and
// resolves its profile rank column.
func (s *Service) BuildSourceRankRanges(ctx context.Context, source rankings.Source, sel rankings.Selection) []RankRow {
	profile, ok := s.Profile(source)
	if !ok {
		return []RankRow{}
	}
	view := s.FilterSource(ctx, source, sel)
	return s.BuildRankRanges(ctx, view, profile.RankColumn)
}
