package detector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/config"
	"github.com/avery-hale/sharpline/internal/detector"
	"github.com/avery-hale/sharpline/internal/store"
	"github.com/avery-hale/sharpline/pkg/models"
)

func pt(v float64) *float64 { return &v }

func testConfig() *config.Config {
	return &config.Config{
		ReferenceBook:            "pinnacle",
		ExchangeBook:             "betfair_ex_us",
		ValueBooks:               []string{"draftkings", "fanduel", "betmgm", "caesars"},
		SteamMinBooks:            3,
		SteamWindowMinutes:       120,
		RapidSpreadThreshold:     1.0,
		RapidMLThreshold:         20.0,
		PinnacleSpreadThreshold:  1.0,
		PinnacleMLProbThreshold:  0.03,
		ExchangeShiftThreshold:   0.03,
		MinSignalStrength:        0.2,
	}
}

func row(event, book, market, outcome string, price float64, point *float64, t time.Time) models.OddsSnapshot {
	return models.OddsSnapshot{
		EventID: event, SportKey: "basketball_nba", HomeTeam: "Lakers", AwayTeam: "Celtics",
		CommenceTime: t.Add(3 * time.Hour), BookmakerKey: book, MarketKey: market,
		OutcomeName: outcome, Price: price, Point: point, FetchedAt: t,
	}
}

func TestSteamMoveSpreadScenario(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cfg := testConfig()

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)

	_, err := s.InsertSnapshots(ctx, []models.OddsSnapshot{
		row("evt1", "draftkings", "spreads", "Lakers", -110, pt(-3.5), t1),
		row("evt1", "fanduel", "spreads", "Lakers", -110, pt(-3.5), t1),
		row("evt1", "betmgm", "spreads", "Lakers", -110, pt(-3.5), t1),
		row("evt1", "caesars", "spreads", "Lakers", -110, pt(-3.5), t1),
		row("evt1", "draftkings", "spreads", "Lakers", -110, pt(-4.0), t2),
		row("evt1", "fanduel", "spreads", "Lakers", -110, pt(-4.0), t2),
		row("evt1", "betmgm", "spreads", "Lakers", -110, pt(-4.0), t2),
		row("evt1", "caesars", "spreads", "Lakers", -110, pt(-3.5), t2),
	})
	require.NoError(t, err)

	d := detector.NewSteamMoveDetector(s, cfg)
	signals, err := d.Detect(ctx, "evt1", t2)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	sig := signals[0]
	require.Equal(t, "down", sig.Direction)
	require.Equal(t, 3, sig.SteamMove.BooksMoved)
	require.InDelta(t, 0.5, sig.SteamMove.AvgDelta, 0.0001)
	require.Contains(t, sig.SteamMove.ValueBooks, "caesars")
}

func TestRapidChangeH2HScenario(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 1, 10, 20, 0, 0, time.UTC)

	fires := func(t2Price float64) []models.Signal {
		s := store.NewMemoryStore()
		_, _ = s.InsertSnapshots(ctx, []models.OddsSnapshot{
			row("evt1", "draftkings", "h2h", "Lakers", -150, nil, t1),
			row("evt1", "draftkings", "h2h", "Lakers", t2Price, nil, t2),
		})
		d := detector.NewRapidChangeDetector(s, cfg)
		signals, _ := d.Detect(ctx, "evt1", t2)
		return signals
	}

	signals := fires(-175)
	require.Len(t, signals, 1)
	require.InDelta(t, -25.0, signals[0].RapidChange.Delta, 0.0001)

	require.Empty(t, fires(-165), "delta 15 < threshold 20 must not fire")
}

func TestPinnacleDivergenceMoneylineValue(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	fires := func(betmgmPrice float64) []models.Signal {
		s := store.NewMemoryStore()
		_, _ = s.InsertSnapshots(ctx, []models.OddsSnapshot{
			row("evt1", "pinnacle", "h2h", "Lakers", -150, nil, t1),
			row("evt1", "betmgm", "h2h", "Lakers", betmgmPrice, nil, t1),
		})
		d := detector.NewPinnacleDivergenceDetector(s, cfg)
		signals, _ := d.Detect(ctx, "evt1", t1)
		return signals
	}

	signals := fires(-110)
	require.Len(t, signals, 1)
	require.Equal(t, "betmgm", signals[0].PinnacleDivergence.USBook)

	require.Empty(t, fires(-190), "worse price than Pinnacle must not fire")
}

func TestReverseLineScenario(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cfg := testConfig()

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)

	_, err := s.InsertSnapshots(ctx, []models.OddsSnapshot{
		row("evt1", "pinnacle", "spreads", "Chiefs", -110, pt(-3.0), t1),
		row("evt1", "pinnacle", "spreads", "Chiefs", -110, pt(-2.5), t2),
		row("evt1", "draftkings", "spreads", "Chiefs", -110, pt(-3.0), t1),
		row("evt1", "draftkings", "spreads", "Chiefs", -110, pt(-3.5), t2),
		row("evt1", "fanduel", "spreads", "Chiefs", -110, pt(-3.0), t1),
		row("evt1", "fanduel", "spreads", "Chiefs", -110, pt(-3.5), t2),
		row("evt1", "betmgm", "spreads", "Chiefs", -110, pt(-3.0), t1),
		row("evt1", "betmgm", "spreads", "Chiefs", -110, pt(-4.0), t2),
	})
	require.NoError(t, err)

	d := detector.NewReverseLineDetector(s, cfg)
	signals, err := d.Detect(ctx, "evt1", t2)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	require.Equal(t, "up", signals[0].ReverseLine.BetDirection)
}
