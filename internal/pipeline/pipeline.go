// Package pipeline orchestrates the five detectors per event, filters weak
// signals, collapses mirror-side duplicates, and applies cooldown dedup,
// mirroring edge-detector/internal/detector.Engine's per-message fan-out
// across its own detector set, collapsed here into a single per-cycle pass
// over every event seen in that cycle's snapshot batch.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

// Pipeline runs detection for one poll cycle: enumerate events, run every
// detector against each, filter, collapse, dedup. It writes nothing to the
// store; recording survivors is the caller's job.
type Pipeline struct {
	store      contracts.Store
	detectors  []contracts.Detector
	config     contracts.DetectorConfig
	cooldown   time.Duration
}

func New(store contracts.Store, detectors []contracts.Detector, config contracts.DetectorConfig, cooldown time.Duration) *Pipeline {
	return &Pipeline{store: store, detectors: detectors, config: config, cooldown: cooldown}
}

// Run executes one detection pass over every event with data at fetchedAt,
// returning the signals that survived strength filtering, mirror collapse,
// and cooldown dedup, in no particular order. Recording each survivor's
// SentAlert row is the caller's responsibility, after dispatch succeeds
// (spec §5 ordering rule (b): alert dispatch precedes performance recording).
//
// candidateEventIDs narrows detection to the Smart Sub-sampler's output for
// this cycle (spec §4.3): an event with snapshot rows at fetchedAt that
// didn't pass the sub-sampler is excluded from detector input even though
// its rows were written. Pass nil to run every event with data at fetchedAt
// unfiltered (used for backtesting historical data, where sub-sampling
// doesn't apply).
func (p *Pipeline) Run(ctx context.Context, fetchedAt time.Time, candidateEventIDs []string) ([]models.Signal, error) {
	eventIDs, err := p.store.GetDistinctEventIDsAt(ctx, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("enumerate events: %w", err)
	}

	if candidateEventIDs != nil {
		allowed := make(map[string]bool, len(candidateEventIDs))
		for _, id := range candidateEventIDs {
			allowed[id] = true
		}
		filtered := eventIDs[:0]
		for _, id := range eventIDs {
			if allowed[id] {
				filtered = append(filtered, id)
			}
		}
		eventIDs = filtered
	}

	var all []models.Signal
	for _, eventID := range eventIDs {
		for _, d := range p.detectors {
			signals, err := d.Detect(ctx, eventID, fetchedAt)
			if err != nil {
				fmt.Printf("⚠️  detector %s failed for event %s: %v\n", d.Type(), eventID, err)
				continue
			}
			all = append(all, signals...)
		}
	}

	strong := make([]models.Signal, 0, len(all))
	for _, s := range all {
		if s.Strength >= p.config.MinStrength() {
			strong = append(strong, s)
		}
	}

	collapsed := collapseMirrors(strong)

	var survivors []models.Signal
	for _, s := range collapsed {
		alerted, err := p.store.WasAlertedRecently(ctx, s.EventID, string(s.Type), s.MarketKey, s.OutcomeName, fetchedAt, p.cooldown)
		if err != nil {
			return nil, fmt.Errorf("cooldown check: %w", err)
		}
		if alerted {
			continue
		}
		survivors = append(survivors, s)
	}

	return survivors, nil
}

// mirrorKey groups the two outcomes of the same market into a single
// candidate set per spec §4.5's mirror-side collapse step: h2h's two teams,
// spreads' two sides, and totals' Over/Under all describe the same
// underlying market move seen from each side.
type mirrorKey struct {
	eventID   string
	signal    models.SignalType
	marketKey string
}

func collapseMirrors(signals []models.Signal) []models.Signal {
	byGroup := map[mirrorKey][]models.Signal{}
	for _, s := range signals {
		k := mirrorKey{s.EventID, s.Type, s.MarketKey}
		byGroup[k] = append(byGroup[k], s)
	}

	out := make([]models.Signal, 0, len(byGroup))
	for _, group := range byGroup {
		out = append(out, pickBest(group))
	}
	return out
}

// pickBest applies the per-type tiebreak table to a group of mirror-side
// signals for the same (event, signal type, market). Total, so every
// non-empty group returns exactly one signal.
func pickBest(group []models.Signal) models.Signal {
	if len(group) == 1 {
		return group[0]
	}

	switch group[0].Type {
	case models.SignalReverseLine:
		for _, s := range group {
			if s.ReverseLine.PinnacleDelta > 0 {
				return s
			}
		}
		return group[0]

	case models.SignalSteamMove:
		if group[0].MarketKey == models.MarketTotals {
			for _, s := range group {
				if (s.Direction == "up" && s.OutcomeName == "Over") || (s.Direction == "down" && s.OutcomeName == "Under") {
					return s
				}
			}
			return group[0]
		}
		for _, s := range group {
			if s.Direction == "down" {
				return s
			}
		}
		return group[0]

	case models.SignalExchangeShift:
		for _, s := range group {
			if s.Direction == "shortened" {
				return s
			}
		}
		return group[0]

	case models.SignalRapidChange:
		sort.Slice(group, func(i, j int) bool {
			return absF(group[i].RapidChange.Delta) > absF(group[j].RapidChange.Delta)
		})
		return group[0]

	default:
		sort.Slice(group, func(i, j int) bool {
			vi, vj := valueBookCount(group[i]), valueBookCount(group[j])
			if vi != vj {
				return vi > vj
			}
			return group[i].Strength > group[j].Strength
		})
		return group[0]
	}
}

func valueBookCount(s models.Signal) int {
	switch {
	case s.SteamMove != nil:
		return len(s.SteamMove.ValueBooks)
	case s.RapidChange != nil:
		return len(s.RapidChange.ValueBooks)
	case s.ExchangeShift != nil:
		return len(s.ExchangeShift.ValueBooks)
	default:
		return 0
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
