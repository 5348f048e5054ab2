package contracts

import (
	"context"
	"time"

	"github.com/avery-hale/sharpline/pkg/models"
)

// Detector is the shared shape of the five detector kinds (spec §9): a pure
// read over the store for one event as of one fetch cycle. Detectors never
// observe each other and never mutate the store.
type Detector interface {
	Detect(ctx context.Context, eventID string, fetchedAt time.Time) ([]models.Signal, error)
	Type() models.SignalType
}

// DetectorConfig is the subset of configuration the detectors consult.
type DetectorConfig interface {
	ReferenceBookKey() string
	ValueBookKeys() []string
	SteamMinBookCount() int
	SteamLookback() time.Duration
	RapidSpreadThresh() float64
	RapidMLThresh() float64
	PinnacleSpreadThresh() float64
	PinnacleMLProbThresh() float64
	ExchangeBookKey() string
	ExchangeShiftThresh() float64
	MinStrength() float64
}
