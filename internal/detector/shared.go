// Package detector implements the five signal detectors of spec §4.4: pure,
// read-only functions over the snapshot store. None observes another; each
// returns a (possibly empty) slice of Signal. Modeled as a closed set of
// variant types per spec §9, rather than a dynamically registered plugin set.
package detector

import (
	"sort"

	"github.com/avery-hale/sharpline/pkg/models"
)

// movementField selects the field used to compute a delta for a given
// market: price for h2h, point for spreads/totals, falling back to price if
// either point is null (spec §4.4.1, §4.4.4).
func movementField(marketKey string, price float64, point *float64) float64 {
	if marketKey == models.MarketH2H || point == nil {
		return price
	}
	return *point
}

// clampStrength clamps a raw strength value into [0, 1].
func clampStrength(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// sortedCopy returns a sorted copy of a string slice for deterministic
// value_books ordering.
func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
