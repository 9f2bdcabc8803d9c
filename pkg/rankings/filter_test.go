package rankings

import (
	"reflect"
	"testing"
)

func TestParseRegionFilter(t *testing.T) {
	for raw, want := range map[string]RegionFilter{
		"":    RegionAll,
		"all": RegionAll,
		"All": RegionAll,
		"in":  RegionInOnly,
		"Yes": RegionInOnly,
		"out": RegionOutOnly,
		"no":  RegionOutOnly,
	} {
		got, err := ParseRegionFilter(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("expected %s for %q, got %s", want, raw, got)
		}
	}
	if _, err := ParseRegionFilter("maybe"); err == nil {
		t.Fatalf("expected error for unknown filter token")
	}
}

func TestSelectionPeriodSet(t *testing.T) {
	sel := Selection{Periods: []int{2023, 2024, 2023}, Comparator: "B"}
	set := sel.PeriodSet()
	if len(set) != 2 || !set[2023] || !set[2024] {
		t.Fatalf("unexpected period set %v", set)
	}
	if set[2022] {
		t.Fatalf("expected absent period to be false")
	}
	if got := (Selection{}).PeriodSet(); len(got) != 0 {
		t.Fatalf("expected empty selection to produce empty set, got %v", got)
	}
}

func TestSelectionClone(t *testing.T) {
	sel := Selection{Periods: []int{2023, 2024}, Comparator: "B"}
	cp := sel.Clone()
	cp.Periods[0] = 1999
	if !reflect.DeepEqual(sel.Periods, []int{2023, 2024}) {
		t.Fatalf("expected clone to own its periods, got %v", sel.Periods)
	}
}

func TestPeerGroupClone(t *testing.T) {
	g := PeerGroup{Name: "Aspirational", Members: []string{"A", "B"}}
	cp := g.Clone()
	cp.Members[0] = "mutated"
	if g.Members[0] != "A" {
		t.Fatalf("expected clone to own its members, got %v", g.Members)
	}
}
