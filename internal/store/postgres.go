// Package store is sharpline's snapshot store: the seven query operations
// of spec §4.1 plus the SentAlert/ApiUsage/SignalResult ledgers, backed by
// Postgres via database/sql + lib/pq, in the teacher's transaction idiom
// (internal/writer/holocron.go: BeginTx, defer Rollback, Commit on success).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avery-hale/sharpline/pkg/models"
)

// PostgresStore implements contracts.Store against Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open *sql.DB.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertSnapshots inserts rows in one transaction, committing per call per
// spec §4.1's invariant. Duplicate keys are dropped via ON CONFLICT DO NOTHING.
func (s *PostgresStore) InsertSnapshots(ctx context.Context, rows []models.OddsSnapshot) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO odds_snapshots (
			event_id, sport_key, home_team, away_team, commence_time,
			bookmaker_key, market_key, outcome_name, price, point, fetched_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (event_id, bookmaker_key, market_key, outcome_name, fetched_at) DO NOTHING
	`

	inserted := 0
	for _, row := range rows {
		res, err := tx.ExecContext(ctx, q,
			row.EventID, row.SportKey, row.HomeTeam, row.AwayTeam, row.CommenceTime,
			row.BookmakerKey, row.MarketKey, row.OutcomeName, row.Price, row.Point, row.FetchedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert snapshot: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshots: %w", err)
	}

	return inserted, nil
}

func (s *PostgresStore) GetLatestSnapshots(ctx context.Context, eventID string) ([]models.OddsSnapshot, error) {
	const q = `
		SELECT id, event_id, sport_key, home_team, away_team, commence_time,
		       bookmaker_key, market_key, outcome_name, price, point, fetched_at
		FROM odds_snapshots
		WHERE event_id = $1 AND fetched_at = (
			SELECT MAX(fetched_at) FROM odds_snapshots WHERE event_id = $1
		)
	`
	return s.queryRows(ctx, q, eventID)
}

func (s *PostgresStore) GetPreviousSnapshots(ctx context.Context, eventID string, before time.Time) ([]models.OddsSnapshot, error) {
	const q = `
		SELECT DISTINCT ON (bookmaker_key, market_key, outcome_name)
		       id, event_id, sport_key, home_team, away_team, commence_time,
		       bookmaker_key, market_key, outcome_name, price, point, fetched_at
		FROM odds_snapshots
		WHERE event_id = $1 AND fetched_at < $2
		ORDER BY bookmaker_key, market_key, outcome_name, fetched_at DESC
	`
	return s.queryRows(ctx, q, eventID, before)
}

func (s *PostgresStore) GetSnapshotsSince(ctx context.Context, eventID string, since time.Time) ([]models.OddsSnapshot, error) {
	const q = `
		SELECT id, event_id, sport_key, home_team, away_team, commence_time,
		       bookmaker_key, market_key, outcome_name, price, point, fetched_at
		FROM odds_snapshots
		WHERE event_id = $1 AND fetched_at >= $2
		ORDER BY fetched_at ASC
	`
	return s.queryRows(ctx, q, eventID, since)
}

func (s *PostgresStore) GetDistinctEventIDsAt(ctx context.Context, fetchedAt time.Time) ([]string, error) {
	const q = `SELECT DISTINCT event_id FROM odds_snapshots WHERE fetched_at = $1`
	rows, err := s.db.QueryContext(ctx, q, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("query distinct event ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) GetReferenceLine(ctx context.Context, eventID, marketKey, outcomeName string, signalAt time.Time, referenceBook string) (*float64, error) {
	const q = `
		SELECT point FROM odds_snapshots
		WHERE event_id = $1 AND market_key = $2 AND outcome_name = $3
		  AND fetched_at <= $4 AND bookmaker_key = $5 AND point IS NOT NULL
		ORDER BY fetched_at DESC LIMIT 1
	`
	var point float64
	err := s.db.QueryRowContext(ctx, q, eventID, marketKey, outcomeName, signalAt, referenceBook).Scan(&point)
	if err == nil {
		return &point, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("query reference line (reference book): %w", err)
	}

	const fallbackQ = `
		SELECT point FROM odds_snapshots
		WHERE event_id = $1 AND market_key = $2 AND outcome_name = $3
		  AND fetched_at <= $4 AND point IS NOT NULL
		ORDER BY fetched_at DESC LIMIT 1
	`
	err = s.db.QueryRowContext(ctx, fallbackQ, eventID, marketKey, outcomeName, signalAt).Scan(&point)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query reference line (fallback): %w", err)
	}
	return &point, nil
}

func (s *PostgresStore) GetDistinctFetchTimes(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	const q = `
		SELECT DISTINCT fetched_at FROM odds_snapshots
		WHERE fetched_at >= $1 AND fetched_at < $2
		ORDER BY fetched_at ASC
	`
	rows, err := s.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, fmt.Errorf("query distinct fetch times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan fetch time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (s *PostgresStore) WasAlertedRecently(ctx context.Context, eventID, alertType, marketKey, outcomeName string, now time.Time, cooldown time.Duration) (bool, error) {
	const q = `
		SELECT COUNT(*) FROM sent_alerts
		WHERE event_id = $1 AND alert_type = $2 AND market_key = $3 AND outcome_name = $4
		  AND sent_at > $5
	`
	var count int
	since := now.Add(-cooldown)
	if err := s.db.QueryRowContext(ctx, q, eventID, alertType, marketKey, outcomeName, since).Scan(&count); err != nil {
		return false, fmt.Errorf("query alert cooldown: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStore) RecordAlert(ctx context.Context, alert models.SentAlert) error {
	const q = `
		INSERT INTO sent_alerts (event_id, alert_type, market_key, outcome_name, sent_at, details_json)
		VALUES ($1,$2,$3,$4,$5,$6)
	`
	_, err := s.db.ExecContext(ctx, q, alert.EventID, alert.AlertType, alert.MarketKey, alert.OutcomeName, alert.SentAt, alert.DetailsJSON)
	if err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordAPIUsage(ctx context.Context, usage models.ApiUsage) error {
	const q = `
		INSERT INTO api_usage (timestamp, endpoint, credits_used, credits_remaining)
		VALUES ($1,$2,$3,$4)
	`
	_, err := s.db.ExecContext(ctx, q, usage.Timestamp, usage.Endpoint, usage.CreditsUsed, usage.CreditsRemaining)
	if err != nil {
		return fmt.Errorf("record api usage: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreditsRemaining(ctx context.Context) (int, bool, error) {
	const q = `SELECT credits_remaining FROM api_usage ORDER BY timestamp DESC LIMIT 1`
	var remaining int
	err := s.db.QueryRowContext(ctx, q).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query credits remaining: %w", err)
	}
	return remaining, true, nil
}

func (s *PostgresStore) CreateSignalResult(ctx context.Context, result models.SignalResult) (int64, error) {
	const q = `
		INSERT INTO signal_results (
			event_id, signal_type, market_key, outcome_name, signal_direction,
			signal_strength, signal_at, details_json
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (event_id, signal_type, market_key, outcome_name, signal_at) DO NOTHING
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, q,
		result.EventID, result.SignalType, result.MarketKey, result.OutcomeName,
		result.SignalDirection, result.SignalStrength, result.SignalAt, result.DetailsJSON,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil // conflict: already recorded for this signal_at
	}
	if err != nil {
		return 0, fmt.Errorf("create signal result: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetUnresolvedSignals(ctx context.Context) ([]models.SignalResult, error) {
	const q = `
		SELECT id, event_id, signal_type, market_key, outcome_name, signal_direction,
		       signal_strength, signal_at, details_json, result, resolved_at
		FROM signal_results WHERE result IS NULL
	`
	return s.querySignals(ctx, q)
}

func (s *PostgresStore) ResolveSignal(ctx context.Context, id int64, result string, resolvedAt time.Time) error {
	const q = `UPDATE signal_results SET result = $1, resolved_at = $2 WHERE id = $3`
	_, err := s.db.ExecContext(ctx, q, result, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("resolve signal: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPerformanceStats(ctx context.Context, since time.Time) ([]models.SignalResult, error) {
	const q = `
		SELECT id, event_id, signal_type, market_key, outcome_name, signal_direction,
		       signal_strength, signal_at, details_json, result, resolved_at
		FROM signal_results WHERE result IS NOT NULL AND resolved_at >= $1
	`
	return s.querySignals(ctx, q, since)
}

func (s *PostgresStore) GetEventTeams(ctx context.Context, eventID string) (string, string, error) {
	const q = `
		SELECT home_team, away_team FROM odds_snapshots
		WHERE event_id = $1 ORDER BY fetched_at DESC LIMIT 1
	`
	var home, away string
	err := s.db.QueryRowContext(ctx, q, eventID).Scan(&home, &away)
	if err != nil {
		return "", "", fmt.Errorf("query event teams: %w", err)
	}
	return home, away, nil
}

func (s *PostgresStore) queryRows(ctx context.Context, q string, args ...interface{}) ([]models.OddsSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.OddsSnapshot
	for rows.Next() {
		var row models.OddsSnapshot
		if err := rows.Scan(
			&row.ID, &row.EventID, &row.SportKey, &row.HomeTeam, &row.AwayTeam, &row.CommenceTime,
			&row.BookmakerKey, &row.MarketKey, &row.OutcomeName, &row.Price, &row.Point, &row.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PostgresStore) querySignals(ctx context.Context, q string, args ...interface{}) ([]models.SignalResult, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signal results: %w", err)
	}
	defer rows.Close()

	var out []models.SignalResult
	for rows.Next() {
		var r models.SignalResult
		if err := rows.Scan(
			&r.ID, &r.EventID, &r.SignalType, &r.MarketKey, &r.OutcomeName, &r.SignalDirection,
			&r.SignalStrength, &r.SignalAt, &r.DetailsJSON, &r.Result, &r.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan signal result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
