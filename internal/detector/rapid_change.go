package detector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
	"github.com/avery-hale/sharpline/pkg/oddsmath"
)

// RapidChangeDetector fires when a single book jumps its line by at least a
// threshold between the previous and latest snapshot (spec §4.4.2).
type RapidChangeDetector struct {
	store  contracts.Store
	config contracts.DetectorConfig
}

func NewRapidChangeDetector(store contracts.Store, config contracts.DetectorConfig) *RapidChangeDetector {
	return &RapidChangeDetector{store: store, config: config}
}

func (d *RapidChangeDetector) Type() models.SignalType { return models.SignalRapidChange }

type triple struct{ book, market, outcome string }

func (d *RapidChangeDetector) Detect(ctx context.Context, eventID string, fetchedAt time.Time) ([]models.Signal, error) {
	latest, err := d.store.GetLatestSnapshots(ctx, eventID)
	if err != nil {
		return nil, err
	}
	previous, err := d.store.GetPreviousSnapshots(ctx, eventID, fetchedAt)
	if err != nil {
		return nil, err
	}

	latestByTriple := map[triple]models.OddsSnapshot{}
	for _, row := range latest {
		latestByTriple[triple{row.BookmakerKey, row.MarketKey, row.OutcomeName}] = row
	}
	prevByTriple := map[triple]models.OddsSnapshot{}
	for _, row := range previous {
		prevByTriple[triple{row.BookmakerKey, row.MarketKey, row.OutcomeName}] = row
	}

	// Group latest rows by (market, outcome) for value-book comparison.
	latestByGroup := map[group][]models.OddsSnapshot{}
	for _, row := range latest {
		g := group{row.MarketKey, row.OutcomeName}
		latestByGroup[g] = append(latestByGroup[g], row)
	}

	var signals []models.Signal
	for t, curr := range latestByTriple {
		prev, ok := prevByTriple[t]
		if !ok {
			continue
		}

		if t.market != models.MarketH2H && (curr.Point == nil || prev.Point == nil) {
			continue
		}

		var currVal, prevVal, threshold float64
		if t.market == models.MarketH2H {
			currVal, prevVal = curr.Price, prev.Price
			threshold = d.config.RapidMLThresh()
		} else {
			currVal, prevVal = *curr.Point, *prev.Point
			threshold = d.config.RapidSpreadThresh()
		}

		delta := currVal - prevVal
		if abs(delta) < threshold {
			continue
		}

		valueBooks := d.valueBooks(latestByGroup[group{t.market, t.outcome}], t.book, prevVal, currVal, t.market, t.outcome)

		signals = append(signals, models.Signal{
			Type:        models.SignalRapidChange,
			EventID:     eventID,
			SportKey:    curr.SportKey,
			MarketKey:   t.market,
			OutcomeName: t.outcome,
			Strength:    clampStrength(abs(delta) / (3 * threshold)),
			Direction:   directionOf(delta),
			Description: fmt.Sprintf("%s moved %s %s by %.2f at %s", t.book, t.market, t.outcome, abs(delta), directionOf(delta)),
			DetectedAt:  fetchedAt,
			RapidChange: &models.RapidChangeDetails{
				Delta:      delta,
				ValueBooks: valueBooks,
			},
		})
	}

	return signals, nil
}

// group mirrors the (market, outcome) grouping key used across detectors.
type group struct{ marketKey, outcomeName string }

func directionOf(delta float64) string {
	if delta > 0 {
		return "up"
	}
	return "down"
}

// valueBooks lists every configured US-subset book whose current line is
// closer to the pre-move value than the post-move value (stale, hence value
// if the mover turns out correct), plus the mover itself.
func (d *RapidChangeDetector) valueBooks(rows []models.OddsSnapshot, mover string, prevVal, currVal float64, marketKey, outcomeName string) []string {
	seen := map[string]bool{mover: true}
	for _, row := range rows {
		if row.BookmakerKey == mover || !contains(d.config.ValueBookKeys(), row.BookmakerKey) {
			continue
		}
		v := movementField(marketKey, row.Price, row.Point)
		if abs(v-prevVal) < abs(v-currVal) {
			seen[row.BookmakerKey] = true
		}
	}

	out := make([]string, 0, len(seen))
	for book := range seen {
		out = append(out, book)
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := valueFor(rows, out[i], marketKey), valueFor(rows, out[j], marketKey)
		return oddsmath.BetterForBettor(marketKey, outcomeName, bi, bj)
	})
	return out
}

func valueFor(rows []models.OddsSnapshot, book, marketKey string) float64 {
	for _, row := range rows {
		if row.BookmakerKey == book {
			return movementField(marketKey, row.Price, row.Point)
		}
	}
	return 0
}
