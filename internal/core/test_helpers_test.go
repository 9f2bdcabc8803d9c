package core

import (
	"context"
	"sync"

	"rankcore/pkg/rankings"
)

// intPtr is a lightweight helper for pointer fields in core package tests.
func intPtr(v int) *int {
	return &v
}

// row builds one fixture record.
func row(name string, period int, region string, metrics map[string]rankings.Value) rankings.Record {
	return rankings.Record{Institution: name, Period: period, Region: region, Metrics: metrics}
}

func num(f float64) rankings.Value { return rankings.NumberValue(f) }
func text(s string) rankings.Value { return rankings.TextValue(s) }

const (
	anchorName     = rankings.DefaultAnchor
	comparatorName = rankings.DefaultComparator
	outOfState     = "Georgia Institute of Technology"
	oddRegion      = "Drexel University"
	timesOnly      = "Stevens Institute of Technology"
)

// fixtureTables builds a four-source snapshot: the anchor, the default
// comparator, an out-of-state school, and a school with an unrecognised
// region token appear everywhere; Stevens appears only in times and usnews.
func fixtureTables() map[rankings.Source]rankings.Table {
	times := rankings.NewTable(rankings.SourceTimes, nil, []rankings.Record{
		row(anchorName, 2022, "Yes", map[string]rankings.Value{}),
		row(anchorName, 2023, "Yes", map[string]rankings.Value{"Times_Rank": text("601–800"), "Overall": num(44)}),
		row(anchorName, 2024, "Yes", map[string]rankings.Value{"Times_Rank": text("601-800"), "Overall": num(45.2)}),
		row(comparatorName, 2023, "Yes", map[string]rankings.Value{"Times_Rank": text("251-300")}),
		row(comparatorName, 2024, "Yes", map[string]rankings.Value{"Times_Rank": text("201-250"), "Overall": num(55)}),
		row(outOfState, 2024, "No", map[string]rankings.Value{"Times_Rank": text("132")}),
		row(oddRegion, 2024, "Maybe", map[string]rankings.Value{"Times_Rank": text("—")}),
		row(timesOnly, 2024, "Yes", map[string]rankings.Value{"Times_Rank": text("501-600")}),
	})
	qs := rankings.NewTable(rankings.SourceQS, nil, []rankings.Record{
		row(anchorName, 2023, "Yes", map[string]rankings.Value{"QS_Rank": text("951-1000")}),
		row(anchorName, 2024, "Yes", map[string]rankings.Value{"QS_Rank": text("901-950")}),
		row(comparatorName, 2023, "Yes", map[string]rankings.Value{"QS_Rank": text("281")}),
		row(comparatorName, 2024, "Yes", map[string]rankings.Value{"QS_Rank": text("267")}),
		row(outOfState, 2024, "No", map[string]rankings.Value{"QS_Rank": text("114")}),
		row(oddRegion, 2024, "Maybe", map[string]rankings.Value{"QS_Rank": text("671-680")}),
	})
	usnews := rankings.NewTable(rankings.SourceUSNews, nil, []rankings.Record{
		row(anchorName, 2023, "Yes", map[string]rankings.Value{"Rank": num(97)}),
		row(anchorName, 2024, "Yes", map[string]rankings.Value{"Rank": num(86)}),
		row(comparatorName, 2024, "Yes", map[string]rankings.Value{"Rank": num(41)}),
		row(outOfState, 2024, "No", map[string]rankings.Value{"Rank": num(33)}),
		row(oddRegion, 2024, "Maybe", map[string]rankings.Value{"Rank": num(98)}),
		row(timesOnly, 2024, "Yes", map[string]rankings.Value{"Rank": num(76)}),
	})
	washington := rankings.NewTable(rankings.SourceWashington, nil, []rankings.Record{
		row(anchorName, 2023, "Yes", map[string]rankings.Value{"Washington_Rank": num(120)}),
		row(anchorName, 2024, "Yes", map[string]rankings.Value{"Washington_Rank": num(112)}),
		row(comparatorName, 2024, "Yes", map[string]rankings.Value{"Washington_Rank": num(63)}),
		row(outOfState, 2024, "No", map[string]rankings.Value{"Washington_Rank": num(29)}),
		row(oddRegion, 2024, "Maybe", map[string]rankings.Value{"Washington_Rank": num(131)}),
	})
	return map[rankings.Source]rankings.Table{
		rankings.SourceTimes:      times,
		rankings.SourceQS:         qs,
		rankings.SourceUSNews:     usnews,
		rankings.SourceWashington: washington,
	}
}

func newFixtureService(opts ...ServiceOption) *Service {
	return NewInMemoryService(fixtureTables(), opts...)
}

// stubTableSource is a mutable source for reload tests.
type stubTableSource struct {
	mu       sync.Mutex
	tables   map[rankings.Source]rankings.Table
	peers    []rankings.PeerGroup
	loadErr  error
	peersErr error
	loads    int
	closed   bool
}

func (s *stubTableSource) set(tables map[rankings.Source]rankings.Table, peers []rankings.PeerGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
	s.peers = peers
}

func (s *stubTableSource) fail(loadErr, peersErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = loadErr
	s.peersErr = peersErr
}

func (s *stubTableSource) Load(context.Context) (map[rankings.Source]rankings.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[rankings.Source]rankings.Table, len(s.tables))
	for src, table := range s.tables {
		out[src] = table
	}
	return out, nil
}

func (s *stubTableSource) PeerGroups(context.Context) ([]rankings.PeerGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peersErr != nil {
		return nil, s.peersErr
	}
	out := make([]rankings.PeerGroup, len(s.peers))
	for i, g := range s.peers {
		out[i] = g.Clone()
	}
	return out, nil
}

func (s *stubTableSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
