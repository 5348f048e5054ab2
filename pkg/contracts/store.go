// Package contracts defines the interfaces sharpline's components depend on:
// the snapshot store, the upstream odds provider, the alert sink, and the
// detector shape. Concrete implementations live under internal/.
package contracts

import (
	"context"
	"time"

	"github.com/avery-hale/sharpline/pkg/models"
)

// Store is the snapshot store's contract: the seven query operations of
// spec §4.1, plus the SentAlert/ApiUsage/SignalResult ledgers the pipeline,
// budget governor, and grader depend on.
type Store interface {
	// InsertSnapshots inserts rows, silently dropping duplicates per the
	// (event_id, bookmaker_key, market_key, outcome_name, fetched_at)
	// uniqueness key. Returns the count actually inserted.
	InsertSnapshots(ctx context.Context, rows []models.OddsSnapshot) (int, error)

	// GetLatestSnapshots returns every row at the single maximum fetched_at
	// present for eventID.
	GetLatestSnapshots(ctx context.Context, eventID string) ([]models.OddsSnapshot, error)

	// GetPreviousSnapshots returns, for each (bookmaker, market, outcome)
	// combination, the row with the greatest fetched_at < before.
	GetPreviousSnapshots(ctx context.Context, eventID string, before time.Time) ([]models.OddsSnapshot, error)

	// GetSnapshotsSince returns every row with fetched_at >= since, ascending.
	GetSnapshotsSince(ctx context.Context, eventID string, since time.Time) ([]models.OddsSnapshot, error)

	// GetDistinctEventIDsAt returns identifiers of events with at least one
	// row at exactly fetchedAt.
	GetDistinctEventIDsAt(ctx context.Context, fetchedAt time.Time) ([]string, error)

	// GetReferenceLine returns the point of the latest row at or before
	// signalAt for the given triple, preferring referenceBook, falling back
	// to any book. Returns (nil, nil) if no row qualifies.
	GetReferenceLine(ctx context.Context, eventID, marketKey, outcomeName string, signalAt time.Time, referenceBook string) (*float64, error)

	// GetDistinctFetchTimes returns every distinct fetched_at in
	// [start, end), ascending.
	GetDistinctFetchTimes(ctx context.Context, start, end time.Time) ([]time.Time, error)

	// WasAlertedRecently answers the SentAlert cooldown query: was an alert
	// of this (event, type, market, outcome) dispatched within cooldown of now.
	WasAlertedRecently(ctx context.Context, eventID, alertType, marketKey, outcomeName string, now time.Time, cooldown time.Duration) (bool, error)

	// RecordAlert writes a SentAlert row after successful dispatch.
	RecordAlert(ctx context.Context, alert models.SentAlert) error

	// RecordAPIUsage writes an ApiUsage row carried from upstream headers.
	RecordAPIUsage(ctx context.Context, usage models.ApiUsage) error

	// CreditsRemaining returns the credits_remaining of the most recent
	// ApiUsage row, and whether any row exists yet (bootstrap case).
	CreditsRemaining(ctx context.Context) (remaining int, hasRows bool, err error)

	// CreateSignalResult persists a detected signal with a null result.
	CreateSignalResult(ctx context.Context, result models.SignalResult) (int64, error)

	// GetUnresolvedSignals returns every SignalResult with result IS NULL.
	GetUnresolvedSignals(ctx context.Context) ([]models.SignalResult, error)

	// ResolveSignal sets result and resolvedAt on the signal with the given ID.
	ResolveSignal(ctx context.Context, id int64, result string, resolvedAt time.Time) error

	// GetPerformanceStats returns resolved SignalResults since the given time,
	// for roll-ups by detector and by market.
	GetPerformanceStats(ctx context.Context, since time.Time) ([]models.SignalResult, error)

	// GetEventTeams returns the home/away team names most recently seen for
	// an event. The grader's h2h comparison reads team names from the scores
	// response instead.
	GetEventTeams(ctx context.Context, eventID string) (home, away string, err error)
}
