package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
	"github.com/avery-hale/sharpline/pkg/oddsmath"
)

// ExchangeShiftDetector fires when the designated exchange's implied
// probability moves by at least a threshold (spec §4.4.5).
type ExchangeShiftDetector struct {
	store  contracts.Store
	config contracts.DetectorConfig
}

func NewExchangeShiftDetector(store contracts.Store, config contracts.DetectorConfig) *ExchangeShiftDetector {
	return &ExchangeShiftDetector{store: store, config: config}
}

func (d *ExchangeShiftDetector) Type() models.SignalType { return models.SignalExchangeShift }

func (d *ExchangeShiftDetector) Detect(ctx context.Context, eventID string, fetchedAt time.Time) ([]models.Signal, error) {
	latest, err := d.store.GetLatestSnapshots(ctx, eventID)
	if err != nil {
		return nil, err
	}
	previous, err := d.store.GetPreviousSnapshots(ctx, eventID, fetchedAt)
	if err != nil {
		return nil, err
	}

	exchangeBook := d.config.ExchangeBookKey()
	latestByOutcome := map[string]models.OddsSnapshot{}
	for _, row := range latest {
		if row.BookmakerKey == exchangeBook && row.MarketKey == models.MarketH2H {
			latestByOutcome[row.OutcomeName] = row
		}
	}
	prevByOutcome := map[string]models.OddsSnapshot{}
	for _, row := range previous {
		if row.BookmakerKey == exchangeBook && row.MarketKey == models.MarketH2H {
			prevByOutcome[row.OutcomeName] = row
		}
	}

	latestByOutcomeAll := map[string][]models.OddsSnapshot{}
	for _, row := range latest {
		if row.MarketKey == models.MarketH2H {
			latestByOutcomeAll[row.OutcomeName] = append(latestByOutcomeAll[row.OutcomeName], row)
		}
	}

	var signals []models.Signal
	for outcome, newRow := range latestByOutcome {
		oldRow, ok := prevByOutcome[outcome]
		if !ok {
			continue
		}

		pNew, err := oddsmath.ImpliedProbability(newRow.Price)
		if err != nil {
			continue
		}
		pOld, err := oddsmath.ImpliedProbability(oldRow.Price)
		if err != nil {
			continue
		}

		shift := abs(pNew - pOld)
		if shift < d.config.ExchangeShiftThresh() {
			continue
		}

		direction := "drifted"
		if pNew > pOld {
			direction = "shortened"
		}

		var valueBooks []string
		for _, book := range d.config.ValueBookKeys() {
			for _, row := range latestByOutcomeAll[outcome] {
				if row.BookmakerKey != book {
					continue
				}
				usProb, err := oddsmath.ImpliedProbability(row.Price)
				if err != nil {
					continue
				}
				stale := (direction == "shortened" && usProb < pNew) || (direction == "drifted" && usProb > pNew)
				if stale {
					valueBooks = append(valueBooks, book)
				}
			}
		}

		signals = append(signals, models.Signal{
			Type:        models.SignalExchangeShift,
			EventID:     eventID,
			SportKey:    newRow.SportKey,
			MarketKey:   models.MarketH2H,
			OutcomeName: outcome,
			Strength:    clampStrength(shift / 0.15),
			Direction:   direction,
			Description: fmt.Sprintf("%s implied probability %s by %.4f on %s", exchangeBook, direction, shift, outcome),
			DetectedAt:  fetchedAt,
			ExchangeShift: &models.ExchangeShiftDetails{
				ShiftAmount: shift,
				ValueBooks:  sortedCopy(valueBooks),
			},
		})
	}

	return signals, nil
}
