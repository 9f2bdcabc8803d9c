package rankings

import (
	"strconv"
	"strings"
)

// enDash is the range separator some agencies publish instead of an ASCII
// hyphen.
const enDash = "–"

// RankRange is the canonical form of a published rank: an exact rank yields
// Low == High == Mid, a bucketed rank such as "501-600" yields its bounds
// and truncated midpoint, and an unparsable token yields all nil.
type RankRange struct {
	Low  *int `json:"low"`
	High *int `json:"high"`
	Mid  *int `json:"mid"`
}

// Resolved reports whether parsing produced a usable midpoint.
func (r RankRange) Resolved() bool { return r.Mid != nil }

// ParseRank normalizes a raw rank token. En-dashes are unified to hyphens
// before splitting; a two-part split parses both bounds in published order
// with Mid = (Low+High)/2 truncated; a single token parses as an exact
// rank. Any failure, including empty input or more than two parts, yields
// the unresolved range. ParseRank never fails with an error.
func ParseRank(raw string) RankRange {
	parts := strings.Split(strings.ReplaceAll(raw, enDash, "-"), "-")
	if len(parts) == 2 {
		low, errLow := strconv.Atoi(strings.TrimSpace(parts[0]))
		high, errHigh := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errLow != nil || errHigh != nil {
			return RankRange{}
		}
		mid := (low + high) / 2
		return RankRange{Low: &low, High: &high, Mid: &mid}
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return RankRange{}
	}
	return RankRange{Low: &v, High: &v, Mid: &v}
}
