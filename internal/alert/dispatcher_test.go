package alert_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/alert"
	"github.com/avery-hale/sharpline/internal/store"
	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

type fakeSink struct {
	fail bool
	sent []contracts.AlertRecord
}

func (f *fakeSink) Send(_ context.Context, record contracts.AlertRecord) error {
	if f.fail {
		return errors.New("webhook down")
	}
	f.sent = append(f.sent, record)
	return nil
}

func steamSignal() models.Signal {
	return models.Signal{
		Type: models.SignalSteamMove, EventID: "evt1", MarketKey: "spreads", OutcomeName: "Lakers",
		Strength: 0.8, Direction: "down", DetectedAt: time.Now().UTC(),
		SteamMove: &models.SteamMoveDetails{BooksMoved: 3, TotalBooks: 4, AvgDelta: 0.5, ValueBooks: []string{"caesars"}},
	}
}

func TestDispatchRecordsBothLedgersOnSuccess(t *testing.T) {
	s := store.NewMemoryStore()
	sink := &fakeSink{}
	d := alert.NewDispatcher(s, func(string) string { return "https://discord.example/hook" }, func(string) contracts.AlertSink { return sink })

	sig := steamSignal()
	err := d.Dispatch(context.Background(), sig, "cycle-1")
	require.NoError(t, err)
	require.Len(t, sink.sent, 1)

	alerted, err := s.WasAlertedRecently(context.Background(), sig.EventID, string(sig.Type), sig.MarketKey, sig.OutcomeName, sig.DetectedAt, time.Hour)
	require.NoError(t, err)
	require.True(t, alerted)

	unresolved, err := s.GetUnresolvedSignals(context.Background())
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	require.Equal(t, sig.EventID, unresolved[0].EventID)
}

func TestDispatchFailureRecordsNeitherLedger(t *testing.T) {
	s := store.NewMemoryStore()
	sink := &fakeSink{fail: true}
	d := alert.NewDispatcher(s, func(string) string { return "https://discord.example/hook" }, func(string) contracts.AlertSink { return sink })

	sig := steamSignal()
	err := d.Dispatch(context.Background(), sig, "cycle-1")
	require.Error(t, err)

	alerted, err := s.WasAlertedRecently(context.Background(), sig.EventID, string(sig.Type), sig.MarketKey, sig.OutcomeName, sig.DetectedAt, time.Hour)
	require.NoError(t, err)
	require.False(t, alerted, "a failed dispatch must not suppress a retry on the next cycle")

	unresolved, err := s.GetUnresolvedSignals(context.Background())
	require.NoError(t, err)
	require.Len(t, unresolved, 0)
}
