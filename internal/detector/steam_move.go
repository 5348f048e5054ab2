package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

// SteamMoveDetector fires when several books move the same line in the same
// direction within a short window (spec §4.4.1).
type SteamMoveDetector struct {
	store  contracts.Store
	config contracts.DetectorConfig
}

func NewSteamMoveDetector(store contracts.Store, config contracts.DetectorConfig) *SteamMoveDetector {
	return &SteamMoveDetector{store: store, config: config}
}

func (d *SteamMoveDetector) Type() models.SignalType { return models.SignalSteamMove }

func (d *SteamMoveDetector) Detect(ctx context.Context, eventID string, fetchedAt time.Time) ([]models.Signal, error) {
	since := fetchedAt.Add(-d.config.SteamLookback())
	rows, err := d.store.GetSnapshotsSince(ctx, eventID, since)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	type group struct {
		marketKey, outcomeName string
	}
	byGroup := map[group][]models.OddsSnapshot{}
	for _, row := range rows {
		g := group{row.MarketKey, row.OutcomeName}
		byGroup[g] = append(byGroup[g], row)
	}

	var signals []models.Signal
	for g, groupRows := range byGroup {
		byBook := map[string][]models.OddsSnapshot{}
		for _, row := range groupRows {
			byBook[row.BookmakerKey] = append(byBook[row.BookmakerKey], row)
		}

		var deltas []models.BookDelta
		var up, down []models.BookDelta
		movedBooks := map[string]bool{}
		totalBooksSeen := 0

		for book, bookRows := range byBook {
			if len(bookRows) < 2 {
				continue
			}
			totalBooksSeen++

			first, last := bookRows[0], bookRows[0]
			for _, r := range bookRows {
				if r.FetchedAt.Before(first.FetchedAt) {
					first = r
				}
				if r.FetchedAt.After(last.FetchedAt) {
					last = r
				}
			}

			delta := movementField(g.marketKey, last.Price, last.Point) - movementField(g.marketKey, first.Price, first.Point)
			bd := models.BookDelta{BookKey: book, Delta: delta, CurrentPrice: last.Price, CurrentPoint: last.Point}
			deltas = append(deltas, bd)

			switch {
			case delta > 0:
				up = append(up, bd)
			case delta < 0:
				down = append(down, bd)
			}
		}

		aligned, direction := up, "up"
		if len(down) > len(up) {
			aligned, direction = down, "down"
		}

		if len(aligned) < d.config.SteamMinBookCount() {
			continue
		}

		var sumAbs float64
		for _, bd := range aligned {
			sumAbs += abs(bd.Delta)
			movedBooks[bd.BookKey] = true
		}
		avgDelta := sumAbs / float64(len(aligned))

		var valueBooks []string
		for _, vb := range d.config.ValueBookKeys() {
			if _, seen := byBook[vb]; seen && !movedBooks[vb] {
				valueBooks = append(valueBooks, vb)
			}
		}

		strength := clampStrength(float64(len(aligned)) / float64(totalBooksSeen))
		if strength < 0 {
			strength = 0
		}

		signals = append(signals, models.Signal{
			Type:        models.SignalSteamMove,
			EventID:     eventID,
			SportKey:    groupRows[0].SportKey,
			MarketKey:   g.marketKey,
			OutcomeName: g.outcomeName,
			Strength:    strength,
			Direction:   direction,
			Description: fmt.Sprintf("%d books moved %s on %s %s (avg delta %.2f)", len(aligned), direction, g.marketKey, g.outcomeName, avgDelta),
			DetectedAt:  fetchedAt,
			SteamMove: &models.SteamMoveDetails{
				BooksMoved:  len(aligned),
				TotalBooks:  totalBooksSeen,
				AvgDelta:    avgDelta,
				BookDetails: deltas,
				ValueBooks:  sortedCopy(valueBooks),
			},
		})
	}

	return signals, nil
}
