package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

// ReverseLineDetector fires when the US-book consensus moves one way while
// the sharp reference book moves the other (spec §4.4.4).
type ReverseLineDetector struct {
	store  contracts.Store
	config contracts.DetectorConfig
}

func NewReverseLineDetector(store contracts.Store, config contracts.DetectorConfig) *ReverseLineDetector {
	return &ReverseLineDetector{store: store, config: config}
}

func (d *ReverseLineDetector) Type() models.SignalType { return models.SignalReverseLine }

func (d *ReverseLineDetector) Detect(ctx context.Context, eventID string, fetchedAt time.Time) ([]models.Signal, error) {
	since := fetchedAt.Add(-d.config.SteamLookback())
	rows, err := d.store.GetSnapshotsSince(ctx, eventID, since)
	if err != nil {
		return nil, err
	}

	byGroup := map[group][]models.OddsSnapshot{}
	for _, row := range rows {
		g := group{row.MarketKey, row.OutcomeName}
		byGroup[g] = append(byGroup[g], row)
	}

	refBook := d.config.ReferenceBookKey()
	var signals []models.Signal

	for g, groupRows := range byGroup {
		byBook := map[string][]models.OddsSnapshot{}
		for _, row := range groupRows {
			byBook[row.BookmakerKey] = append(byBook[row.BookmakerKey], row)
		}

		pinRows, ok := byBook[refBook]
		if !ok || len(pinRows) < 2 {
			continue
		}
		pinDelta := endpointDelta(g.marketKey, pinRows)

		var usDeltas []float64
		for _, usBook := range d.config.ValueBookKeys() {
			bookRows, ok := byBook[usBook]
			if !ok || len(bookRows) < 2 {
				continue
			}
			delta := endpointDelta(g.marketKey, bookRows)
			if delta != 0 {
				usDeltas = append(usDeltas, delta)
			}
		}

		if len(usDeltas) < 2 {
			continue
		}

		var sum float64
		for _, v := range usDeltas {
			sum += v
		}
		usAvg := sum / float64(len(usDeltas))

		if pinDelta == 0 || usAvg == 0 || sign(usAvg) == sign(pinDelta) {
			continue
		}

		betDirection := "down"
		if pinDelta > 0 {
			betDirection = "up"
		}

		signals = append(signals, models.Signal{
			Type:        models.SignalReverseLine,
			EventID:     eventID,
			SportKey:    groupRows[0].SportKey,
			MarketKey:   g.marketKey,
			OutcomeName: g.outcomeName,
			Strength:    clampStrength((abs(usAvg) + abs(pinDelta)) / 4),
			Direction:   betDirection,
			Description: fmt.Sprintf("%s moved %s while US books averaged the opposite way on %s %s", refBook, betDirection, g.marketKey, g.outcomeName),
			DetectedAt:  fetchedAt,
			ReverseLine: &models.ReverseLineDetails{
				PinnacleDelta: pinDelta,
				USAvgDelta:    usAvg,
				BetDirection:  betDirection,
			},
		})
	}

	return signals, nil
}

// endpointDelta computes last-minus-first over a book's rows in a window,
// using the steam-move field-selection rule (price for h2h, point otherwise,
// falling back to price if either point is null).
func endpointDelta(marketKey string, rows []models.OddsSnapshot) float64 {
	first, last := rows[0], rows[0]
	for _, r := range rows {
		if r.FetchedAt.Before(first.FetchedAt) {
			first = r
		}
		if r.FetchedAt.After(last.FetchedAt) {
			last = r
		}
	}
	return movementField(marketKey, last.Price, last.Point) - movementField(marketKey, first.Price, first.Point)
}
