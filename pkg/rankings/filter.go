package rankings

import "fmt"

// RegionFilter narrows comparisons to institutions in or out of the home
// region.
type RegionFilter string

// Region filter states. RegionAll applies no regional restriction; records
// whose region token is unrecognised pass only RegionAll.
const (
	RegionAll     RegionFilter = "all"
	RegionInOnly  RegionFilter = "in"
	RegionOutOnly RegionFilter = "out"
)

// ParseRegionFilter resolves a filter token. Empty input means RegionAll.
func ParseRegionFilter(raw string) (RegionFilter, error) {
	switch normalizeSourceToken(raw) {
	case "", string(RegionAll):
		return RegionAll, nil
	case string(RegionInOnly), "yes":
		return RegionInOnly, nil
	case string(RegionOutOnly), "no":
		return RegionOutOnly, nil
	}
	return "", fmt.Errorf("unknown region filter %q", raw)
}

// Selection captures one user comparison: the period set and the
// comparator institution paired against the anchor. An empty period set
// selects nothing.
type Selection struct {
	Periods    []int  `json:"periods"`
	Comparator string `json:"comparator"`
}

// PeriodSet returns the selection's periods as a membership set.
func (s Selection) PeriodSet() map[int]bool {
	set := make(map[int]bool, len(s.Periods))
	for _, p := range s.Periods {
		set[p] = true
	}
	return set
}

// Clone returns a deep copy of the selection.
func (s Selection) Clone() Selection {
	out := s
	out.Periods = append([]int(nil), s.Periods...)
	return out
}
