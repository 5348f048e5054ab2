package alert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/alert"
	"github.com/avery-hale/sharpline/pkg/models"
)

func TestFingerprintDeterministic(t *testing.T) {
	sig := models.Signal{
		EventID: "evt1", Type: models.SignalSteamMove, MarketKey: "spreads", OutcomeName: "Lakers",
		SteamMove: &models.SteamMoveDetails{ValueBooks: []string{"caesars", "betmgm"}},
	}

	a := alert.Fingerprint(sig)
	sig.SteamMove.ValueBooks = []string{"betmgm", "caesars"} // reordered
	b := alert.Fingerprint(sig)

	require.Equal(t, a, b, "fingerprint is order-independent over value_books")
}

func TestFingerprintDiffersByOutcome(t *testing.T) {
	sig1 := models.Signal{EventID: "evt1", Type: models.SignalSteamMove, MarketKey: "spreads", OutcomeName: "Lakers", SteamMove: &models.SteamMoveDetails{}}
	sig2 := models.Signal{EventID: "evt1", Type: models.SignalSteamMove, MarketKey: "spreads", OutcomeName: "Celtics", SteamMove: &models.SteamMoveDetails{}}

	require.NotEqual(t, alert.Fingerprint(sig1), alert.Fingerprint(sig2))
}

func TestStyleForKnownAndUnknown(t *testing.T) {
	color, label := alert.StyleFor("steam_move")
	require.Equal(t, "Steam Move", label)
	require.NotZero(t, color)

	_, label = alert.StyleFor("unknown_type")
	require.Equal(t, "Signal", label)
}
