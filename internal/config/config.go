// Package config loads sharpline's configuration from the environment,
// following the original Python implementation's pydantic Settings shape
// (sharp_seeker/config.py) expressed as Go struct tags via caarlos0/env,
// with an optional local .env file loaded first via joho/godotenv.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is sharpline's single configuration struct. Most fields map to a
// configuration key named in spec §6; ReferenceBook, ExchangeBook,
// ValueBooks, CreditsPerPoll, the scheduler hours and the two ambient keys
// are sharpline's own additions.
type Config struct {
	// API
	OddsAPIKey             string   `env:"ODDS_API_KEY,required"`
	OddsAPIBaseURL         string   `env:"ODDS_API_BASE_URL" envDefault:"https://api.the-odds-api.com/v4"`
	OddsAPIMonthlyCredits  int      `env:"ODDS_API_MONTHLY_CREDITS" envDefault:"20000"`
	Bookmakers             []string `env:"BOOKMAKERS" envSeparator:"," envDefault:"draftkings,fanduel,betmgm,caesars,williamhill_us,pinnacle"`
	Sports                 []string `env:"SPORTS" envSeparator:"," envDefault:"basketball_nba,americanfootball_nfl"`
	ReferenceBook          string   `env:"REFERENCE_BOOK" envDefault:"pinnacle"`
	ExchangeBook           string   `env:"EXCHANGE_BOOK" envDefault:"betfair_ex_us"`
	ValueBooks             []string `env:"VALUE_BOOKS" envSeparator:"," envDefault:"draftkings,fanduel,betmgm,caesars,williamhill_us"`
	CreditsPerPoll         int      `env:"CREDITS_PER_POLL" envDefault:"10"`

	// Alerting
	DiscordWebhookURL             string `env:"DISCORD_WEBHOOK_URL,required"`
	DiscordWebhookSteamMove       string `env:"DISCORD_WEBHOOK_STEAM_MOVE"`
	DiscordWebhookRapidChange     string `env:"DISCORD_WEBHOOK_RAPID_CHANGE"`
	DiscordWebhookPinnacleDivergence string `env:"DISCORD_WEBHOOK_PINNACLE_DIVERGENCE"`
	DiscordWebhookReverseLine     string `env:"DISCORD_WEBHOOK_REVERSE_LINE"`
	DiscordWebhookExchangeShift   string `env:"DISCORD_WEBHOOK_EXCHANGE_SHIFT"`

	// Polling
	PollIntervalMinutes int `env:"POLL_INTERVAL_MINUTES" envDefault:"20"`
	QuietHoursStart     int `env:"QUIET_HOURS_START" envDefault:"4"`
	QuietHoursEnd       int `env:"QUIET_HOURS_END" envDefault:"8"`

	// Detection thresholds
	SteamMinBooks            int     `env:"STEAM_MIN_BOOKS" envDefault:"3"`
	SteamWindowMinutes       int     `env:"STEAM_WINDOW_MINUTES" envDefault:"60"`
	RapidSpreadThreshold     float64 `env:"RAPID_SPREAD_THRESHOLD" envDefault:"1.0"`
	RapidMLThreshold         float64 `env:"RAPID_ML_THRESHOLD" envDefault:"20.0"`
	PinnacleSpreadThreshold  float64 `env:"PINNACLE_SPREAD_THRESHOLD" envDefault:"1.0"`
	PinnacleMLProbThreshold  float64 `env:"PINNACLE_ML_PROB_THRESHOLD" envDefault:"0.03"`
	ExchangeShiftThreshold   float64 `env:"EXCHANGE_SHIFT_THRESHOLD" envDefault:"0.03"`
	MinSignalStrength        float64 `env:"MIN_SIGNAL_STRENGTH" envDefault:"0.2"`

	// Alert dedup
	AlertCooldownMinutes int `env:"ALERT_COOLDOWN_MINUTES" envDefault:"60"`

	// Scheduler
	GraderHourUTC       int `env:"GRADER_HOUR_UTC" envDefault:"9"`
	DailyReportHourUTC  int `env:"DAILY_REPORT_HOUR_UTC" envDefault:"10"`
	WeeklyReportWeekday int `env:"WEEKLY_REPORT_WEEKDAY" envDefault:"1"` // Monday

	// Storage
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Ambient: sub-sampler cache / cross-instance lock (optional)
	RedisURL string `env:"REDIS_URL"`
	// Ambient: JSON health/metrics surface (optional)
	HealthAddr string `env:"HEALTH_ADDR"`
}

// Load reads a local .env file if present, then parses the environment into
// a Config. Missing required keys (ODDS_API_KEY, DISCORD_WEBHOOK_URL,
// DATABASE_URL) are a startup failure per spec §7.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// PollInterval is the poll job cadence as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMinutes) * time.Minute
}

// SteamWindow is the steam-move detector's lookback window.
func (c *Config) SteamWindow() time.Duration {
	return time.Duration(c.SteamWindowMinutes) * time.Minute
}

// AlertCooldown is the cooldown-dedup window.
func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.AlertCooldownMinutes) * time.Minute
}

// The following methods implement contracts.DetectorConfig.

func (c *Config) ReferenceBookKey() string             { return c.ReferenceBook }
func (c *Config) ValueBookKeys() []string              { return c.ValueBooks }
func (c *Config) SteamMinBookCount() int               { return c.SteamMinBooks }
func (c *Config) SteamLookback() time.Duration         { return c.SteamWindow() }
func (c *Config) RapidSpreadThresh() float64           { return c.RapidSpreadThreshold }
func (c *Config) RapidMLThresh() float64               { return c.RapidMLThreshold }
func (c *Config) PinnacleSpreadThresh() float64        { return c.PinnacleSpreadThreshold }
func (c *Config) PinnacleMLProbThresh() float64        { return c.PinnacleMLProbThreshold }
func (c *Config) ExchangeBookKey() string              { return c.ExchangeBook }
func (c *Config) ExchangeShiftThresh() float64          { return c.ExchangeShiftThreshold }
func (c *Config) MinStrength() float64                 { return c.MinSignalStrength }

// WebhookFor returns the per-signal webhook override if configured, else
// the default DiscordWebhookURL.
func (c *Config) WebhookFor(signalType string) string {
	switch signalType {
	case "steam_move":
		if c.DiscordWebhookSteamMove != "" {
			return c.DiscordWebhookSteamMove
		}
	case "rapid_change":
		if c.DiscordWebhookRapidChange != "" {
			return c.DiscordWebhookRapidChange
		}
	case "pinnacle_divergence":
		if c.DiscordWebhookPinnacleDivergence != "" {
			return c.DiscordWebhookPinnacleDivergence
		}
	case "reverse_line":
		if c.DiscordWebhookReverseLine != "" {
			return c.DiscordWebhookReverseLine
		}
	case "exchange_shift":
		if c.DiscordWebhookExchangeShift != "" {
			return c.DiscordWebhookExchangeShift
		}
	}
	return c.DiscordWebhookURL
}
