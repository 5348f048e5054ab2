package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/store"
	"github.com/avery-hale/sharpline/pkg/models"
)

func pt(v float64) *float64 { return &v }

func snap(event, book, market, outcome string, price float64, point *float64, fetchedAt time.Time) models.OddsSnapshot {
	return models.OddsSnapshot{
		EventID: event, SportKey: "basketball_nba", HomeTeam: "Lakers", AwayTeam: "Celtics",
		CommenceTime: fetchedAt.Add(2 * time.Hour),
		BookmakerKey: book, MarketKey: market, OutcomeName: outcome,
		Price: price, Point: point, FetchedAt: fetchedAt,
	}
}

func TestInsertSnapshotsDropsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	t1 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	row := snap("evt1", "draftkings", "spreads", "Lakers", -110, pt(-3.5), t1)

	n, err := s.InsertSnapshots(ctx, []models.OddsSnapshot{row, row})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.InsertSnapshots(ctx, []models.OddsSnapshot{row})
	require.NoError(t, err)
	require.Equal(t, 0, n, "re-inserting the same key must be silently dropped")
}

func TestGetPreviousSnapshotsPicksGreatestBeforeEachCombination(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.InsertSnapshots(ctx, []models.OddsSnapshot{
		snap("evt1", "draftkings", "spreads", "Lakers", -110, pt(-3.0), t1),
		snap("evt1", "draftkings", "spreads", "Lakers", -110, pt(-3.5), t2),
		snap("evt1", "fanduel", "spreads", "Lakers", -110, pt(-3.0), t1),
	})
	require.NoError(t, err)

	prev, err := s.GetPreviousSnapshots(ctx, "evt1", t3)
	require.NoError(t, err)
	require.Len(t, prev, 2, "one row per (bookmaker, market, outcome) combination")

	for _, row := range prev {
		if row.BookmakerKey == "draftkings" {
			require.Equal(t, t2, row.FetchedAt, "must pick the greatest fetched_at < before")
			require.Equal(t, -3.5, *row.Point)
		}
	}
}

func TestWasAlertedRecentlyHonorsCooldownWindow(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordAlert(ctx, models.SentAlert{
		EventID: "evt1", AlertType: "steam_move", MarketKey: "spreads", OutcomeName: "Lakers",
		SentAt: now.Add(-30 * time.Minute),
	}))

	within, err := s.WasAlertedRecently(ctx, "evt1", "steam_move", "spreads", "Lakers", now, 60*time.Minute)
	require.NoError(t, err)
	require.True(t, within)

	expired, err := s.WasAlertedRecently(ctx, "evt1", "steam_move", "spreads", "Lakers", now, 20*time.Minute)
	require.NoError(t, err)
	require.False(t, expired)
}

func TestCreditsRemainingBootstrap(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, hasRows, err := s.CreditsRemaining(ctx)
	require.NoError(t, err)
	require.False(t, hasRows)

	require.NoError(t, s.RecordAPIUsage(ctx, models.ApiUsage{
		Timestamp: time.Now(), Endpoint: "odds", CreditsUsed: 10, CreditsRemaining: 490,
	}))

	remaining, hasRows, err := s.CreditsRemaining(ctx)
	require.NoError(t, err)
	require.True(t, hasRows)
	require.Equal(t, 490, remaining)
}
