package oddsmath

import "strings"

// BetterForBettor reports whether value a is a more favorable line than value
// b for the given market/outcome, per the single polarity rule the detectors
// share: h2h and spreads favor a higher number (price or point), totals
// favor a lower point on the Over side and a higher point on the Under side.
func BetterForBettor(marketKey, outcomeName string, a, b float64) bool {
	if marketKey == "totals" && strings.EqualFold(outcomeName, "under") {
		return a > b
	}
	if marketKey == "totals" {
		// Over, or any other totals label defaults to the Over rule.
		return a < b
	}
	// h2h and spreads: higher is better for the bettor.
	return a > b
}
