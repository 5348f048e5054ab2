// Package models holds the core domain entities shared across sharpline's
// internal packages: the snapshot fact table, the dedup and budget ledgers,
// the graded-signal record, and the in-memory Signal sum type detectors emit.
package models

import "time"

// MarketKey enumerates the three markets the core understands.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

// OddsSnapshot is an append-only fact row: one bookmaker's price for one
// outcome of one market of one event, as of one fetch cycle.
type OddsSnapshot struct {
	ID           int64
	EventID      string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	BookmakerKey string
	MarketKey    string
	OutcomeName  string
	Price        float64
	Point        *float64 // nil iff MarketKey == MarketH2H
	FetchedAt    time.Time
}

// SentAlert is the cooldown dedup ledger row, written after a successful
// dispatch and queried to suppress repeat alerts within a cooldown window.
type SentAlert struct {
	ID          int64
	EventID     string
	AlertType   string
	MarketKey   string
	OutcomeName string
	SentAt      time.Time
	DetailsJSON string
}

// ApiUsage is the budget ledger row, carrying the upstream provider's credit
// counters verbatim from response headers.
type ApiUsage struct {
	ID               int64
	Timestamp        time.Time
	Endpoint         string
	CreditsUsed      int
	CreditsRemaining int
}

// SignalResult is the performance fact row: created by alert.Dispatcher after
// a successful dispatch with a null Result, mutated exactly once by the grader.
type SignalResult struct {
	ID              int64
	EventID         string
	SignalType      string
	MarketKey       string
	OutcomeName     string
	SignalDirection string
	SignalStrength  float64
	SignalAt        time.Time
	DetailsJSON     string
	Result          *string // "won" | "lost" | "push" | nil (unresolved)
	ResolvedAt      *time.Time
}

const (
	ResultWon  = "won"
	ResultLost = "lost"
	ResultPush = "push"
)
