// Dispatcher wires a pipeline survivor to the alert sink and the two
// downstream ledgers (SentAlert, SignalResult), preserving spec §5's
// ordering rule (b): dispatch precedes performance recording, so a cooldown
// query in a later cycle sees the alert that suppresses its mirror. Per
// spec §7, a failed dispatch records neither row — the signal was never
// actually alerted, so cooldown must not suppress a retry next cycle, and
// there is nothing yet to grade.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

// Dispatcher sends one Signal at a time and, on successful dispatch,
// records it into both ledgers.
type Dispatcher struct {
	store         contracts.Store
	sink          contracts.AlertSink
	webhookFor    func(signalType string) string
	perSignalSink func(webhookURL string) contracts.AlertSink
}

// NewDispatcher builds a Dispatcher. webhookFor resolves the per-signal-type
// webhook override (config.Config.WebhookFor); perSignalSink constructs a
// sink bound to that URL (alert.NewDiscordSink) so each signal type can be
// routed to its own channel per spec §6's optional overrides.
func NewDispatcher(store contracts.Store, webhookFor func(string) string, perSignalSink func(string) contracts.AlertSink) *Dispatcher {
	return &Dispatcher{store: store, webhookFor: webhookFor, perSignalSink: perSignalSink}
}

// Dispatch formats, sends, and — only on success — records sig as both a
// SentAlert (cooldown ledger) and a SignalResult (performance ledger, with
// result left null for the grader to resolve later).
func (d *Dispatcher) Dispatch(ctx context.Context, sig models.Signal, correlationID string) error {
	record := Format(sig, correlationID)
	sink := d.perSignalSink(d.webhookFor(string(sig.Type)))

	if err := sink.Send(ctx, record); err != nil {
		return fmt.Errorf("dispatch %s signal for %s: %w", sig.Type, sig.EventID, err)
	}

	detailsJSON, err := marshalDetails(sig)
	if err != nil {
		return fmt.Errorf("marshal alert details: %w", err)
	}

	now := sig.DetectedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if err := d.store.RecordAlert(ctx, models.SentAlert{
		EventID: sig.EventID, AlertType: string(sig.Type), MarketKey: sig.MarketKey,
		OutcomeName: sig.OutcomeName, SentAt: now, DetailsJSON: detailsJSON,
	}); err != nil {
		return fmt.Errorf("record sent alert: %w", err)
	}

	if _, err := d.store.CreateSignalResult(ctx, models.SignalResult{
		EventID: sig.EventID, SignalType: string(sig.Type), MarketKey: sig.MarketKey,
		OutcomeName: sig.OutcomeName, SignalDirection: sig.Direction, SignalStrength: sig.Strength,
		SignalAt: now, DetailsJSON: detailsJSON,
	}); err != nil {
		return fmt.Errorf("record signal result: %w", err)
	}

	return nil
}

// marshalDetails serializes a signal's type-specific payload plus its dedup
// fingerprint into the details_json column both ledger rows carry.
func marshalDetails(sig models.Signal) (string, error) {
	payload := map[string]interface{}{
		"fingerprint": Fingerprint(sig),
		"description": sig.Description,
	}
	switch {
	case sig.SteamMove != nil:
		payload["steam_move"] = sig.SteamMove
	case sig.RapidChange != nil:
		payload["rapid_change"] = sig.RapidChange
	case sig.PinnacleDivergence != nil:
		payload["pinnacle_divergence"] = sig.PinnacleDivergence
	case sig.ReverseLine != nil:
		payload["reverse_line"] = sig.ReverseLine
	case sig.ExchangeShift != nil:
		payload["exchange_shift"] = sig.ExchangeShift
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
