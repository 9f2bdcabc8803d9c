// Package memory serves the agency ranking tables from process memory,
// hydrated from CSV files read through the blob facade.
package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"rankcore/internal/blob"
	"rankcore/pkg/rankings"
)

// Source loads one profile-named CSV file per agency. Tables are decoded
// fresh on every Load; caching belongs to the service layer.
type Source struct {
	store    blob.Store
	prefix   string
	profiles map[rankings.Source]rankings.Profile
}

var _ rankings.TableSource = (*Source)(nil)

// New builds a CSV-backed table source. File keys resolve as prefix plus
// the profile's FileName; peer groups come from the peers file under the
// same prefix when present.
func New(store blob.Store, profiles map[rankings.Source]rankings.Profile, prefix string) *Source {
	cloned := make(map[rankings.Source]rankings.Profile, len(profiles))
	for src, p := range profiles {
		cloned[src] = p.Clone()
	}
	return &Source{store: store, prefix: prefix, profiles: cloned}
}

func (s *Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Load implements rankings.TableSource.
func (s *Source) Load(ctx context.Context) (map[rankings.Source]rankings.Table, error) {
	out := make(map[rankings.Source]rankings.Table, len(s.profiles))
	for _, src := range rankings.Sources() {
		profile, ok := s.profiles[src]
		if !ok {
			continue
		}
		key := s.key(profile.FileName)
		_, rc, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		table, err := decodeTable(src, profile, rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close %s: %w", key, closeErr)
		}
		out[src] = table
	}
	return out, nil
}

// decodeTable reads one agency CSV: a header row naming physical columns,
// then one row per (institution, period). The shared period and
// institution columns are required; every other column becomes a metric.
func decodeTable(src rankings.Source, profile rankings.Profile, r io.Reader) (rankings.Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return rankings.Table{}, fmt.Errorf("empty file")
	}
	if err != nil {
		return rankings.Table{}, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	periodIdx, ok := index[rankings.ColumnPeriod]
	if !ok {
		return rankings.Table{}, rankings.MissingColumnError{Source: src, Column: rankings.ColumnPeriod}
	}
	instIdx, ok := index[rankings.ColumnInstitution]
	if !ok {
		return rankings.Table{}, rankings.MissingColumnError{Source: src, Column: rankings.ColumnInstitution}
	}
	regionIdx := -1
	if profile.RegionColumn != "" {
		if i, ok := index[profile.RegionColumn]; ok {
			regionIdx = i
		}
	}

	var metricCols []string
	var metricIdx []int
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == periodIdx || i == instIdx {
			continue
		}
		metricCols = append(metricCols, name)
		metricIdx = append(metricIdx, i)
	}

	var rows []rankings.Record
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return rankings.Table{}, err
		}
		if blankRow(rec) {
			continue
		}
		institution := strings.TrimSpace(rec[instIdx])
		if institution == "" {
			return rankings.Table{}, fmt.Errorf("row %d: empty institution", line)
		}
		period, err := strconv.Atoi(strings.TrimSpace(rec[periodIdx]))
		if err != nil {
			return rankings.Table{}, fmt.Errorf("row %d: invalid period %q", line, rec[periodIdx])
		}

		row := rankings.Record{
			Institution: institution,
			Period:      period,
			Metrics:     make(map[string]rankings.Value, len(metricIdx)),
		}
		if regionIdx >= 0 {
			row.Region = strings.TrimSpace(rec[regionIdx])
		}
		for j, col := range metricCols {
			row.Metrics[col] = rankings.ParseValue(strings.TrimSpace(rec[metricIdx[j]]))
		}
		rows = append(rows, row)
	}
	return rankings.NewTable(src, metricCols, rows), nil
}

func blankRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// PeerGroups implements rankings.TableSource. A missing peers file is not
// an error; peer sets are optional companions.
func (s *Source) PeerGroups(ctx context.Context) ([]rankings.PeerGroup, error) {
	key := s.key(rankings.PeerFileName)
	_, rc, err := s.store.Get(ctx, key)
	if err != nil {
		if blob.IsNotFound(err) {
			return []rankings.PeerGroup{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	groups, err := decodePeerGroups(rc)
	closeErr := rc.Close()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close %s: %w", key, closeErr)
	}
	return groups, nil
}

// decodePeerGroups reads the peers file: group name and member columns,
// grouped by first appearance with member order preserved.
func decodePeerGroups(r io.Reader) ([]rankings.PeerGroup, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return []rankings.PeerGroup{}, nil
	}
	if err != nil {
		return nil, err
	}

	typeIdx, nameIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case rankings.ColumnPeerType:
			if typeIdx < 0 {
				typeIdx = i
			}
		case rankings.ColumnPeerName:
			if nameIdx < 0 {
				nameIdx = i
			}
		}
	}
	if typeIdx < 0 {
		return nil, fmt.Errorf("required column %q missing", rankings.ColumnPeerType)
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("required column %q missing", rankings.ColumnPeerName)
	}

	var order []string
	members := map[string][]string{}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if blankRow(rec) {
			continue
		}
		group := strings.TrimSpace(rec[typeIdx])
		member := strings.TrimSpace(rec[nameIdx])
		if group == "" || member == "" {
			continue
		}
		if _, ok := members[group]; !ok {
			order = append(order, group)
		}
		members[group] = append(members[group], member)
	}

	groups := make([]rankings.PeerGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, rankings.PeerGroup{Name: name, Members: members[name]})
	}
	return groups, nil
}

// Close implements rankings.TableSource. The blob store's lifecycle is
// owned by the caller.
func (s *Source) Close() error { return nil }
