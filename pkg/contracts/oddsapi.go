package contracts

import "context"

// SportInfo is one entry of the upstream "active sports" response.
type SportInfo struct {
	Key          string
	Title        string
	Active       bool
	HasOutrights bool
}

// OutcomeQuote is one outcome of one market of one bookmaker.
type OutcomeQuote struct {
	Name  string
	Price float64
	Point *float64
}

// MarketQuote is one market (h2h/spreads/totals) of one bookmaker.
type MarketQuote struct {
	Key      string
	Outcomes []OutcomeQuote
}

// BookmakerQuote is one bookmaker's markets for one event.
type BookmakerQuote struct {
	Key     string
	Title   string
	Markets []MarketQuote
}

// EventOdds is one event's full odds response.
type EventOdds struct {
	ID           string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime string // ISO-8601 UTC, parsed by the fetcher
	Bookmakers   []BookmakerQuote
}

// CreditHeaders carries the two numeric credit counters every odds response
// returns, per spec §6.
type CreditHeaders struct {
	RequestsUsed      int
	RequestsRemaining int
}

// ScoreEntry is one event's final-score response.
type ScoreEntry struct {
	ID        string
	HomeTeam  string
	AwayTeam  string
	Completed bool
	Scores    []TeamScore // absent/empty means not yet completed
}

// TeamScore is one team's final score.
type TeamScore struct {
	Name  string
	Score float64
}

// OddsProvider is the upstream odds HTTP API, consumer view (spec §6).
type OddsProvider interface {
	ActiveSports(ctx context.Context) ([]SportInfo, error)

	// OddsForSport requests h2h/spreads/totals for the given sport and
	// bookmakers. Returns the events and the credit headers from the response.
	OddsForSport(ctx context.Context, sportKey string, bookmakers []string) ([]EventOdds, CreditHeaders, error)

	// ScoresForSport requests final scores with a daysFrom look-back window.
	ScoresForSport(ctx context.Context, sportKey string, daysFrom int) ([]ScoreEntry, error)
}
