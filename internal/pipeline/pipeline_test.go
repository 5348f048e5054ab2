package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/config"
	"github.com/avery-hale/sharpline/internal/detector"
	"github.com/avery-hale/sharpline/internal/pipeline"
	"github.com/avery-hale/sharpline/internal/store"
	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		ReferenceBook:           "pinnacle",
		ExchangeBook:            "betfair_ex_us",
		ValueBooks:              []string{"draftkings", "fanduel", "betmgm", "caesars"},
		SteamMinBooks:           3,
		SteamWindowMinutes:      120,
		RapidSpreadThreshold:    1.0,
		RapidMLThreshold:        20.0,
		PinnacleSpreadThreshold: 1.0,
		PinnacleMLProbThreshold: 0.03,
		ExchangeShiftThreshold:  0.03,
		MinSignalStrength:       0.2,
		AlertCooldownMinutes:    60,
	}
}

func pt(v float64) *float64 { return &v }

func row(event, book, market, outcome string, price float64, point *float64, t time.Time) models.OddsSnapshot {
	return models.OddsSnapshot{
		EventID: event, SportKey: "basketball_nba", HomeTeam: "Lakers", AwayTeam: "Celtics",
		CommenceTime: t.Add(3 * time.Hour), BookmakerKey: book, MarketKey: market,
		OutcomeName: outcome, Price: price, Point: point, FetchedAt: t,
	}
}

func allDetectors(s contracts.Store, cfg contracts.DetectorConfig) []contracts.Detector {
	return []contracts.Detector{
		detector.NewSteamMoveDetector(s, cfg),
		detector.NewRapidChangeDetector(s, cfg),
		detector.NewPinnacleDivergenceDetector(s, cfg),
		detector.NewReverseLineDetector(s, cfg),
		detector.NewExchangeShiftDetector(s, cfg),
	}
}

func TestPipelineCollapsesMirrorSides(t *testing.T) {
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
		row("evt1", "draftkings", "spreads", "Celtics", -110, pt(3.5), t1),
		row("evt1", "fanduel", "spreads", "Celtics", -110, pt(3.5), t1),
		row("evt1", "betmgm", "spreads", "Celtics", -110, pt(3.5), t1),
		row("evt1", "caesars", "spreads", "Celtics", -110, pt(3.5), t1),

		row("evt1", "draftkings", "spreads", "Lakers", -110, pt(-4.0), t2),
		row("evt1", "fanduel", "spreads", "Lakers", -110, pt(-4.0), t2),
		row("evt1", "betmgm", "spreads", "Lakers", -110, pt(-4.0), t2),
		row("evt1", "caesars", "spreads", "Lakers", -110, pt(-3.5), t2),
		row("evt1", "draftkings", "spreads", "Celtics", -110, pt(4.0), t2),
		row("evt1", "fanduel", "spreads", "Celtics", -110, pt(4.0), t2),
		row("evt1", "betmgm", "spreads", "Celtics", -110, pt(4.0), t2),
		row("evt1", "caesars", "spreads", "Celtics", -110, pt(3.5), t2),
	})
	require.NoError(t, err)

	p := pipeline.New(s, allDetectors(s, cfg), cfg, cfg.AlertCooldown())
	signals, err := p.Run(ctx, t2, nil)
	require.NoError(t, err)

	steamCount := 0
	for _, sig := range signals {
		if sig.Type == models.SignalSteamMove {
			steamCount++
			require.Equal(t, "down", sig.Direction, "spread steam collapses to the down side")
		}
	}
	require.Equal(t, 1, steamCount, "mirror sides of the same steam move collapse to one signal")
}

func TestPipelineSuppressesWithinCooldown(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cfg := testConfig()

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 1, 10, 20, 0, 0, time.UTC)

	_, err := s.InsertSnapshots(ctx, []models.OddsSnapshot{
		row("evt1", "draftkings", "h2h", "Lakers", -150, nil, t1),
		row("evt1", "draftkings", "h2h", "Lakers", -175, nil, t2),
	})
	require.NoError(t, err)

	p := pipeline.New(s, allDetectors(s, cfg), cfg, cfg.AlertCooldown())
	first, err := p.Run(ctx, t2, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for _, sig := range first {
		require.NoError(t, s.RecordAlert(ctx, models.SentAlert{
			EventID: sig.EventID, AlertType: string(sig.Type), MarketKey: sig.MarketKey,
			OutcomeName: sig.OutcomeName, SentAt: t2,
		}))
	}

	second, err := p.Run(ctx, t2, nil)
	require.NoError(t, err)
	require.Empty(t, second, "re-running on the same fetched_at after recording alerts must return nothing")
}

func TestPipelineAlwaysAboveMinStrength(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cfg := testConfig()

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)

	_, err := s.InsertSnapshots(ctx, []models.OddsSnapshot{
		row("evt1", "draftkings", "spreads", "Lakers", -110, pt(-3.5), t1),
		row("evt1", "fanduel", "spreads", "Lakers", -110, pt(-3.5), t1),
		row("evt1", "draftkings", "spreads", "Lakers", -110, pt(-4.0), t2),
		row("evt1", "fanduel", "spreads", "Lakers", -110, pt(-4.0), t2),
	})
	require.NoError(t, err)

	p := pipeline.New(s, allDetectors(s, cfg), cfg, cfg.AlertCooldown())
	signals, err := p.Run(ctx, t2, nil)
	require.NoError(t, err)
	for _, sig := range signals {
		require.GreaterOrEqual(t, sig.Strength, cfg.MinStrength())
	}
}
