// Package grader reconciles unresolved signals against final game scores,
// adapted from settlement-service/internal/settler.Settler's per-market
// arithmetic (settleMoneyline/settleSpread/settleTotal), applied here to
// SignalResult rows instead of placed bets, against the configured
// OddsProvider's scores endpoint instead of a one-off HTTP call per event.
package grader

import (
	"context"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

const lookbackDays = 3

// Grader resolves every unresolved SignalResult it can, once per run.
type Grader struct {
	store         contracts.Store
	odds          contracts.OddsProvider
	referenceBook string
	sports        []string
}

func New(store contracts.Store, odds contracts.OddsProvider, referenceBook string, sports []string) *Grader {
	return &Grader{store: store, odds: odds, referenceBook: referenceBook, sports: sports}
}

// Result tallies one grading run, per spec §8's invariant
// won+lost+push+skipped == len(unresolved).
type Result struct {
	Won, Lost, Push, Skipped int
}

func (r Result) Total() int { return r.Won + r.Lost + r.Push + r.Skipped }

func (g *Grader) Run(ctx context.Context, now time.Time) (Result, error) {
	unresolved, err := g.store.GetUnresolvedSignals(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get unresolved signals: %w", err)
	}
	if len(unresolved) == 0 {
		return Result{}, nil
	}

	sportKeys := g.sports
	if len(sportKeys) == 0 {
		sportKeys = []string{}
	}

	scoresByEvent := map[string]contracts.ScoreEntry{}
	for _, sportKey := range sportKeys {
		entries, err := g.odds.ScoresForSport(ctx, sportKey, lookbackDays)
		if err != nil {
			fmt.Printf("⚠️  grader: scores fetch failed for %s: %v\n", sportKey, err)
			continue
		}
		for _, e := range entries {
			scoresByEvent[e.ID] = e
		}
	}

	var result Result
	for _, sig := range unresolved {
		score, ok := scoresByEvent[sig.EventID]
		if !ok || !score.Completed {
			result.Skipped++
			continue
		}

		outcome, skip := g.grade(ctx, sig, score)
		if skip {
			result.Skipped++
			continue
		}

		if err := g.store.ResolveSignal(ctx, sig.ID, outcome, now); err != nil {
			return result, fmt.Errorf("resolve signal %d: %w", sig.ID, err)
		}

		switch outcome {
		case models.ResultWon:
			result.Won++
		case models.ResultLost:
			result.Lost++
		case models.ResultPush:
			result.Push++
		}
	}

	return result, nil
}

func (g *Grader) grade(ctx context.Context, sig models.SignalResult, score contracts.ScoreEntry) (outcome string, skip bool) {
	homeScore, awayScore, ok := teamScores(score)
	if !ok {
		return "", true
	}

	switch sig.MarketKey {
	case models.MarketH2H:
		return gradeMoneyline(sig.OutcomeName, score, homeScore, awayScore), false

	case models.MarketSpreads:
		point, err := g.store.GetReferenceLine(ctx, sig.EventID, sig.MarketKey, sig.OutcomeName, sig.SignalAt, g.referenceBook)
		if err != nil || point == nil {
			return "", true
		}
		teamScore, oppScore := perspectiveScores(sig.OutcomeName, score, homeScore, awayScore)
		margin := teamScore - oppScore + *point
		return signToResult(margin), false

	case models.MarketTotals:
		point, err := g.store.GetReferenceLine(ctx, sig.EventID, sig.MarketKey, sig.OutcomeName, sig.SignalAt, g.referenceBook)
		if err != nil || point == nil {
			return "", true
		}
		combined := homeScore + awayScore
		diff := combined - *point
		if sig.OutcomeName == "Under" {
			diff = -diff
		}
		return signToResult(diff), false

	default:
		return "", true
	}
}

func gradeMoneyline(outcomeName string, score contracts.ScoreEntry, homeScore, awayScore float64) string {
	var winner string
	switch {
	case homeScore > awayScore:
		winner = score.HomeTeam
	case awayScore > homeScore:
		winner = score.AwayTeam
	default:
		return models.ResultPush
	}
	if outcomeName == winner {
		return models.ResultWon
	}
	return models.ResultLost
}

func perspectiveScores(outcomeName string, score contracts.ScoreEntry, homeScore, awayScore float64) (team, opponent float64) {
	if outcomeName == score.HomeTeam {
		return homeScore, awayScore
	}
	return awayScore, homeScore
}

func signToResult(v float64) string {
	switch {
	case v > 0:
		return models.ResultWon
	case v < 0:
		return models.ResultLost
	default:
		return models.ResultPush
	}
}

func teamScores(score contracts.ScoreEntry) (home, away float64, ok bool) {
	var foundHome, foundAway bool
	for _, s := range score.Scores {
		switch s.Name {
		case score.HomeTeam:
			home, foundHome = s.Score, true
		case score.AwayTeam:
			away, foundAway = s.Score, true
		}
	}
	return home, away, foundHome && foundAway
}
