// Signal -> AlertRecord formatting (SPEC_FULL.md §4.9), adapted from the
// original's alerts/discord.py per-signal-type field layout. Each variant's
// detail struct contributes its own fields; the common envelope (title,
// color, timestamp, footer) is identical across all five.
package alert

import (
	"fmt"
	"strings"

	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

// Format builds the structured AlertRecord spec §6 requires for dispatch,
// tagging the footer with a correlation ID so a cycle's fetch -> detect ->
// alert chain is traceable across log lines (SPEC_FULL.md §2.2).
func Format(sig models.Signal, correlationID string) contracts.AlertRecord {
	color, label := StyleFor(string(sig.Type))

	fields := []contracts.AlertField{
		{Name: "Market", Value: strings.ToUpper(sig.MarketKey), Inline: true},
		{Name: "Outcome", Value: sig.OutcomeName, Inline: true},
		{Name: "Strength", Value: fmt.Sprintf("%.2f", sig.Strength), Inline: true},
	}
	fields = append(fields, detailFields(sig)...)

	return contracts.AlertRecord{
		Title:       fmt.Sprintf("%s — %s", label, sig.EventID),
		Description: sig.Description,
		Color:       color,
		Fields:      fields,
		Timestamp:   sig.DetectedAt,
		Footer:      fmt.Sprintf("sharpline · cycle %s", correlationID),
	}
}

func detailFields(sig models.Signal) []contracts.AlertField {
	switch {
	case sig.SteamMove != nil:
		d := sig.SteamMove
		return []contracts.AlertField{
			{Name: "Books Moved", Value: fmt.Sprintf("%d/%d", d.BooksMoved, d.TotalBooks), Inline: true},
			{Name: "Avg Delta", Value: fmt.Sprintf("%.2f", d.AvgDelta), Inline: true},
			{Name: "Value Books", Value: joinOrNone(d.ValueBooks), Inline: false},
		}

	case sig.RapidChange != nil:
		d := sig.RapidChange
		return []contracts.AlertField{
			{Name: "Delta", Value: fmt.Sprintf("%.2f", d.Delta), Inline: true},
			{Name: "Value Books", Value: joinOrNone(d.ValueBooks), Inline: false},
		}

	case sig.PinnacleDivergence != nil:
		d := sig.PinnacleDivergence
		return []contracts.AlertField{
			{Name: "Reference Book", Value: d.ReferenceBook, Inline: true},
			{Name: "US Book", Value: d.USBook, Inline: true},
			{Name: "Delta", Value: fmt.Sprintf("%.4f", d.Delta), Inline: true},
		}

	case sig.ReverseLine != nil:
		d := sig.ReverseLine
		return []contracts.AlertField{
			{Name: "Pinnacle Delta", Value: fmt.Sprintf("%.2f", d.PinnacleDelta), Inline: true},
			{Name: "US Avg Delta", Value: fmt.Sprintf("%.2f", d.USAvgDelta), Inline: true},
			{Name: "Bet Direction", Value: d.BetDirection, Inline: true},
		}

	case sig.ExchangeShift != nil:
		d := sig.ExchangeShift
		return []contracts.AlertField{
			{Name: "Shift", Value: fmt.Sprintf("%.4f", d.ShiftAmount), Inline: true},
			{Name: "Value Books", Value: joinOrNone(d.ValueBooks), Inline: false},
		}

	default:
		return nil
	}
}

func joinOrNone(books []string) string {
	if len(books) == 0 {
		return "none"
	}
	return strings.Join(books, ", ")
}
