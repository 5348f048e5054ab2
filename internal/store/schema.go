package store

// schemaSQL bootstraps sharpline's four tables. Migrations (schema bumps)
// are explicitly out of core scope per spec §1; this is a plain idempotent
// bootstrap, the same role sharp_seeker's db/migrations.py init_db() plays.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS odds_snapshots (
    id BIGSERIAL PRIMARY KEY,
    event_id TEXT NOT NULL,
    sport_key TEXT NOT NULL,
    home_team TEXT NOT NULL,
    away_team TEXT NOT NULL,
    commence_time TIMESTAMPTZ NOT NULL,
    bookmaker_key TEXT NOT NULL,
    market_key TEXT NOT NULL,
    outcome_name TEXT NOT NULL,
    price DOUBLE PRECISION NOT NULL,
    point DOUBLE PRECISION,
    fetched_at TIMESTAMPTZ NOT NULL,
    UNIQUE (event_id, bookmaker_key, market_key, outcome_name, fetched_at)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_event_fetched ON odds_snapshots (event_id, fetched_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched ON odds_snapshots (fetched_at);

CREATE TABLE IF NOT EXISTS sent_alerts (
    id BIGSERIAL PRIMARY KEY,
    event_id TEXT NOT NULL,
    alert_type TEXT NOT NULL,
    market_key TEXT NOT NULL,
    outcome_name TEXT NOT NULL,
    sent_at TIMESTAMPTZ NOT NULL,
    details_json JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_alerts_dedup ON sent_alerts (event_id, alert_type, market_key, outcome_name, sent_at);

CREATE TABLE IF NOT EXISTS api_usage (
    id BIGSERIAL PRIMARY KEY,
    timestamp TIMESTAMPTZ NOT NULL,
    endpoint TEXT NOT NULL,
    credits_used INTEGER NOT NULL,
    credits_remaining INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON api_usage (timestamp);

CREATE TABLE IF NOT EXISTS signal_results (
    id BIGSERIAL PRIMARY KEY,
    event_id TEXT NOT NULL,
    signal_type TEXT NOT NULL,
    market_key TEXT NOT NULL,
    outcome_name TEXT NOT NULL,
    signal_direction TEXT NOT NULL,
    signal_strength DOUBLE PRECISION NOT NULL,
    signal_at TIMESTAMPTZ NOT NULL,
    details_json JSONB NOT NULL DEFAULT '{}',
    result TEXT,
    resolved_at TIMESTAMPTZ,
    UNIQUE (event_id, signal_type, market_key, outcome_name, signal_at)
);
CREATE INDEX IF NOT EXISTS idx_signals_unresolved ON signal_results (result) WHERE result IS NULL;
CREATE INDEX IF NOT EXISTS idx_signals_event ON signal_results (event_id, signal_at);
`

// EnsureSchema creates sharpline's tables if they do not already exist.
func (s *PostgresStore) EnsureSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
