package grader_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/grader"
	"github.com/avery-hale/sharpline/internal/store"
	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

type fakeOdds struct {
	scores []contracts.ScoreEntry
}

func (f *fakeOdds) ActiveSports(ctx context.Context) ([]contracts.SportInfo, error) { return nil, nil }
func (f *fakeOdds) OddsForSport(ctx context.Context, sportKey string, bookmakers []string) ([]contracts.EventOdds, contracts.CreditHeaders, error) {
	return nil, contracts.CreditHeaders{}, nil
}
func (f *fakeOdds) ScoresForSport(ctx context.Context, sportKey string, daysFrom int) ([]contracts.ScoreEntry, error) {
	return f.scores, nil
}

func pt(v float64) *float64 { return &v }

func seedReferenceLine(t *testing.T, s *store.MemoryStore, eventID string, point float64) {
	t.Helper()
	ctx := context.Background()
	_, err := s.InsertSnapshots(ctx, []models.OddsSnapshot{{
		EventID: eventID, SportKey: "basketball_nba", HomeTeam: "Heat", AwayTeam: "Nets",
		CommenceTime: time.Now(), BookmakerKey: "pinnacle", MarketKey: models.MarketTotals,
		OutcomeName: "Over", Price: -110, Point: pt(point), FetchedAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
}

func runGraderScenario(t *testing.T, referenceLine float64) string {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedReferenceLine(t, s, "evt-totals", referenceLine)

	signalAt := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	id, err := s.CreateSignalResult(ctx, models.SignalResult{
		EventID: "evt-totals", SignalType: "steam_move", MarketKey: models.MarketTotals,
		OutcomeName: "Over", SignalDirection: "up", SignalStrength: 0.5, SignalAt: signalAt,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	odds := &fakeOdds{scores: []contracts.ScoreEntry{{
		ID: "evt-totals", HomeTeam: "Heat", AwayTeam: "Nets", Completed: true,
		Scores: []contracts.TeamScore{{Name: "Heat", Score: 110}, {Name: "Nets", Score: 105}},
	}}}

	g := grader.New(s, odds, "pinnacle", []string{"basketball_nba"})
	result, err := g.Run(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, result.Total())

	resolved, err := s.GetPerformanceStats(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].Result)
	return *resolved[0].Result
}

func TestGraderTotalsPush(t *testing.T) {
	require.Equal(t, models.ResultPush, runGraderScenario(t, 215.0))
}

func TestGraderTotalsWon(t *testing.T) {
	require.Equal(t, models.ResultWon, runGraderScenario(t, 210.5))
}

func TestGraderTotalsLost(t *testing.T) {
	require.Equal(t, models.ResultLost, runGraderScenario(t, 220.5))
}

func TestGraderSkipsIncompleteGames(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedReferenceLine(t, s, "evt-pending", 215.0)

	_, err := s.CreateSignalResult(ctx, models.SignalResult{
		EventID: "evt-pending", SignalType: "steam_move", MarketKey: models.MarketTotals,
		OutcomeName: "Over", SignalAt: time.Now(),
	})
	require.NoError(t, err)

	odds := &fakeOdds{scores: []contracts.ScoreEntry{{ID: "evt-pending", Completed: false}}}
	g := grader.New(s, odds, "pinnacle", []string{"basketball_nba"})
	result, err := g.Run(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
}
