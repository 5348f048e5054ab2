package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
	"github.com/avery-hale/sharpline/pkg/oddsmath"
)

// PinnacleDivergenceDetector fires when a US-subset book diverges from the
// sharp reference book by at least a threshold, and in the bettor's favor
// (spec §4.4.3).
type PinnacleDivergenceDetector struct {
	store  contracts.Store
	config contracts.DetectorConfig
}

func NewPinnacleDivergenceDetector(store contracts.Store, config contracts.DetectorConfig) *PinnacleDivergenceDetector {
	return &PinnacleDivergenceDetector{store: store, config: config}
}

func (d *PinnacleDivergenceDetector) Type() models.SignalType { return models.SignalPinnacleDivergence }

func (d *PinnacleDivergenceDetector) Detect(ctx context.Context, eventID string, fetchedAt time.Time) ([]models.Signal, error) {
	latest, err := d.store.GetLatestSnapshots(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byGroup := map[group]map[string]models.OddsSnapshot{}
	for _, row := range latest {
		g := group{row.MarketKey, row.OutcomeName}
		if byGroup[g] == nil {
			byGroup[g] = map[string]models.OddsSnapshot{}
		}
		byGroup[g][row.BookmakerKey] = row
	}

	refBook := d.config.ReferenceBookKey()
	var signals []models.Signal

	for g, books := range byGroup {
		refRow, ok := books[refBook]
		if !ok {
			continue
		}

		for _, usBook := range d.config.ValueBookKeys() {
			usRow, ok := books[usBook]
			if !ok || usBook == refBook {
				continue
			}

			var delta, threshold float64
			var better bool

			if g.marketKey == models.MarketH2H {
				usProb, err := oddsmath.ImpliedProbability(usRow.Price)
				if err != nil {
					continue
				}
				pinProb, err := oddsmath.ImpliedProbability(refRow.Price)
				if err != nil {
					continue
				}
				delta = abs(usProb - pinProb)
				threshold = d.config.PinnacleMLProbThresh()
				better = oddsmath.BetterForBettor(g.marketKey, g.outcomeName, usRow.Price, refRow.Price)
			} else {
				if usRow.Point == nil || refRow.Point == nil {
					continue
				}
				delta = abs(*usRow.Point - *refRow.Point)
				threshold = d.config.PinnacleSpreadThresh()
				better = oddsmath.BetterForBettor(g.marketKey, g.outcomeName, *usRow.Point, *refRow.Point)
			}

			if delta < threshold || !better {
				continue
			}

			signals = append(signals, models.Signal{
				Type:        models.SignalPinnacleDivergence,
				EventID:     eventID,
				SportKey:    usRow.SportKey,
				MarketKey:   g.marketKey,
				OutcomeName: g.outcomeName,
				Strength:    clampStrength(delta / (3 * threshold)),
				Description: fmt.Sprintf("%s diverges from %s by %.4f on %s %s", usBook, refBook, delta, g.marketKey, g.outcomeName),
				DetectedAt:  fetchedAt,
				PinnacleDivergence: &models.PinnacleDivergenceDetails{
					Delta:         delta,
					ReferenceBook: refBook,
					USBook:        usBook,
				},
			})
		}
	}

	return signals, nil
}
