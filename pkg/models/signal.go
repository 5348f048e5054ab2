package models

import "time"

// SignalType discriminates the five detector kinds. There is no dynamic
// registration — this is a closed set.
type SignalType string

const (
	SignalSteamMove           SignalType = "steam_move"
	SignalRapidChange         SignalType = "rapid_change"
	SignalPinnacleDivergence  SignalType = "pinnacle_divergence"
	SignalReverseLine         SignalType = "reverse_line"
	SignalExchangeShift       SignalType = "exchange_shift"
)

// BookDelta records one bookmaker's movement within a detection window.
type BookDelta struct {
	BookKey      string
	Delta        float64
	CurrentPrice float64
	CurrentPoint *float64
}

// Signal is the in-memory detector output: a sum of five variants sharing a
// common set of identifying fields. Exactly one of the detail pointers is
// non-nil, matching Type.
type Signal struct {
	Type        SignalType
	EventID     string
	SportKey    string
	MarketKey   string
	OutcomeName string
	Strength    float64
	Direction   string // "up"/"down", "shortened"/"drifted", or detector-specific
	Description string
	DetectedAt  time.Time

	SteamMove          *SteamMoveDetails
	RapidChange        *RapidChangeDetails
	PinnacleDivergence *PinnacleDivergenceDetails
	ReverseLine        *ReverseLineDetails
	ExchangeShift      *ExchangeShiftDetails
}

// SteamMoveDetails is §4.4.1's payload.
type SteamMoveDetails struct {
	BooksMoved   int
	TotalBooks   int
	AvgDelta     float64
	BookDetails  []BookDelta
	ValueBooks   []string
}

// RapidChangeDetails is §4.4.2's payload.
type RapidChangeDetails struct {
	Delta      float64
	ValueBooks []string
}

// PinnacleDivergenceDetails is §4.4.3's payload.
type PinnacleDivergenceDetails struct {
	Delta         float64
	ReferenceBook string
	USBook        string
}

// ReverseLineDetails is §4.4.4's payload.
type ReverseLineDetails struct {
	PinnacleDelta float64
	USAvgDelta    float64
	BetDirection  string
}

// ExchangeShiftDetails is §4.4.5's payload.
type ExchangeShiftDetails struct {
	ShiftAmount float64
	ValueBooks  []string
}
