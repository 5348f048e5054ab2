// Package fetcher implements the Odds Fetcher (spec §4.2): pulls the
// active-sports list, fetches odds per configured sport, flattens the
// response into snapshot rows sharing one fetched_at, runs the Smart
// Sub-sampler over the event list, and records credit usage. Grounded on
// edge-detector/internal/engine.Engine's per-source isolation — one
// sport's failure is logged and does not abort the cycle, the same way
// engine.go isolates one detector's error from the others.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/internal/subsampler"
	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

type Fetcher struct {
	odds       contracts.OddsProvider
	store      contracts.Store
	sports     []string
	bookmakers []string
	tierCache  subsampler.TierCache
}

// New builds a Fetcher. tierCache may be nil (no REDIS_URL configured), in
// which case sub-sampling falls back to a per-process decision with no
// cross-instance tier memory.
func New(odds contracts.OddsProvider, store contracts.Store, sports, bookmakers []string, tierCache subsampler.TierCache) *Fetcher {
	return &Fetcher{odds: odds, store: store, sports: sports, bookmakers: bookmakers, tierCache: tierCache}
}

// Result summarizes one fetch cycle. ConsideredEventIDs is the Smart
// Sub-sampler's output for this cycle (spec §4.3) — the event IDs the
// pipeline should run detection against; a sub-sampled-out event may still
// have snapshot rows written this cycle, it just isn't in this list.
type Result struct {
	FetchedAt          time.Time
	SnapshotsWritten   int
	ConsideredEventIDs []string
	FailedSports       []string
}

// Run executes one fetch cycle. fetchedAt is chosen once by the caller
// (the scheduler) and reused for every row this cycle writes, per spec
// §4.2's "a single fetched_at UTC timestamp is chosen once" rule.
func (f *Fetcher) Run(ctx context.Context, fetchedAt time.Time, cycleIndex int) (Result, error) {
	active, err := f.odds.ActiveSports(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("active sports: %w", err)
	}

	activeByKey := map[string]contracts.SportInfo{}
	for _, s := range active {
		if s.Active && !s.HasOutrights {
			activeByKey[s.Key] = s
		}
	}

	result := Result{FetchedAt: fetchedAt}
	var allRows []models.OddsSnapshot
	var consideredEvents []subsampler.Event

	for _, sportKey := range f.sports {
		if _, ok := activeByKey[sportKey]; !ok {
			continue
		}

		events, headers, err := f.odds.OddsForSport(ctx, sportKey, f.bookmakers)
		if err != nil {
			fmt.Printf("⚠️  fetcher: odds fetch failed for %s: %v\n", sportKey, err)
			result.FailedSports = append(result.FailedSports, sportKey)
			continue
		}

		if err := f.store.RecordAPIUsage(ctx, models.ApiUsage{
			Timestamp: fetchedAt, Endpoint: fmt.Sprintf("odds/%s", sportKey),
			CreditsUsed: headers.RequestsUsed, CreditsRemaining: headers.RequestsRemaining,
		}); err != nil {
			fmt.Printf("⚠️  fetcher: failed to record credit usage for %s: %v\n", sportKey, err)
		}

		for _, event := range events {
			commence, err := time.Parse(time.RFC3339, event.CommenceTime)
			if err != nil {
				commence = time.Time{}
			}
			consideredEvents = append(consideredEvents, subsampler.Event{ID: event.ID, CommenceTime: commence})

			for _, book := range event.Bookmakers {
				for _, market := range book.Markets {
					for _, outcome := range market.Outcomes {
						allRows = append(allRows, models.OddsSnapshot{
							EventID: event.ID, SportKey: event.SportKey,
							HomeTeam: event.HomeTeam, AwayTeam: event.AwayTeam,
							CommenceTime: commence, BookmakerKey: book.Key,
							MarketKey: market.Key, OutcomeName: outcome.Name,
							Price: outcome.Price, Point: outcome.Point,
							FetchedAt: fetchedAt,
						})
					}
				}
			}
		}
	}

	if len(allRows) > 0 {
		n, err := f.store.InsertSnapshots(ctx, allRows)
		if err != nil {
			return result, fmt.Errorf("insert snapshots: %w", err)
		}
		result.SnapshotsWritten = n
	}

	filtered := subsampler.FilterWithCache(ctx, f.tierCache, fetchedAt, consideredEvents, cycleIndex)
	result.ConsideredEventIDs = make([]string, len(filtered))
	for i, e := range filtered {
		result.ConsideredEventIDs[i] = e.ID
	}

	return result, nil
}
