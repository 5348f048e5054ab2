// Package performance rolls up resolved SignalResult rows into win/loss/push
// summaries by detector and by market (spec §2's "Performance + Reports"
// component), and formats them for the daily/weekly report jobs and the
// `stats` CLI command. Grounded on settlement-service's own
// settler.Settler result bookkeeping, extended here with the group-by-key
// roll-up the original's reports.py performed in Python.
package performance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

// Record tallies won/lost/push for one grouping key (a detector type or a
// market key).
type Record struct {
	Won, Lost, Push int
}

// Total is the number of resolved signals this record covers.
func (r Record) Total() int { return r.Won + r.Lost + r.Push }

// WinRate is Won / (Won + Lost), ignoring pushes (a push is not a decision
// either side got right or wrong). Returns 0 when there is no decided signal.
func (r Record) WinRate() float64 {
	decided := r.Won + r.Lost
	if decided == 0 {
		return 0
	}
	return float64(r.Won) / float64(decided)
}

// Stats is one roll-up window's complete breakdown.
type Stats struct {
	Since      time.Time
	Overall    Record
	ByDetector map[string]Record
	ByMarket   map[string]Record
}

// Reporter computes Stats windows from the store's resolved SignalResults.
type Reporter struct {
	store contracts.Store
}

func New(store contracts.Store) *Reporter {
	return &Reporter{store: store}
}

// Compute rolls up every resolved signal with ResolvedAt >= since.
func (r *Reporter) Compute(ctx context.Context, since time.Time) (Stats, error) {
	rows, err := r.store.GetPerformanceStats(ctx, since)
	if err != nil {
		return Stats{}, fmt.Errorf("get performance stats: %w", err)
	}

	stats := Stats{
		Since:      since,
		ByDetector: map[string]Record{},
		ByMarket:   map[string]Record{},
	}

	for _, row := range rows {
		if row.Result == nil {
			continue
		}
		stats.Overall = addOutcome(stats.Overall, *row.Result)
		stats.ByDetector[row.SignalType] = addOutcome(stats.ByDetector[row.SignalType], *row.Result)
		stats.ByMarket[row.MarketKey] = addOutcome(stats.ByMarket[row.MarketKey], *row.Result)
	}

	return stats, nil
}

func addOutcome(r Record, result string) Record {
	switch result {
	case models.ResultWon:
		r.Won++
	case models.ResultLost:
		r.Lost++
	case models.ResultPush:
		r.Push++
	}
	return r
}

// FormatRecord renders one detector/market line in the style the CLI's
// `stats` command and the daily/weekly Discord report both use: counts via
// go-humanize for readability, win rate as a percentage.
func FormatRecord(label string, r Record) string {
	return fmt.Sprintf("%-20s %s-%s-%s (%d resolved, %.1f%% win rate)",
		label, humanize.Comma(int64(r.Won)), humanize.Comma(int64(r.Lost)), humanize.Comma(int64(r.Push)),
		r.Total(), r.WinRate()*100)
}

// Summary renders a full Stats window as multi-line text, sorted by key for
// deterministic output, suitable for both terminal and alert-sink display.
func Summary(period string, stats Stats) string {
	out := fmt.Sprintf("%s report since %s\n%s\n", period, humanize.Time(stats.Since), FormatRecord("overall", stats.Overall))

	out += "\nBy detector:\n"
	for _, key := range sortedKeys(stats.ByDetector) {
		out += FormatRecord(key, stats.ByDetector[key]) + "\n"
	}

	out += "\nBy market:\n"
	for _, key := range sortedKeys(stats.ByMarket) {
		out += FormatRecord(key, stats.ByMarket[key]) + "\n"
	}

	return out
}

func sortedKeys(m map[string]Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
