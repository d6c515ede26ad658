package recorder

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresRecorder persists history to PostgreSQL.
type PostgresRecorder struct {
	*sqlRecorder
	logger *zap.Logger
}

// NewPostgresRecorder connects with dsn and runs migrations.
func NewPostgresRecorder(dsn string, logger *zap.Logger) (*PostgresRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{sqlRecorder: &sqlRecorder{db: db, numbered: true}, logger: logger.Named("recorder")}
	if err := r.migrate(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	r.logger.Info("postgres recorder opened")
	return r, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_snapshots (
		id              BIGSERIAL PRIMARY KEY,
		timestamp       BIGINT NOT NULL,
		code            TEXT NOT NULL,
		market          TEXT,
		price           DOUBLE PRECISION,
		live            BOOLEAN,
		weekly_prob     INTEGER,
		monthly_prob    INTEGER,
		composite_score DOUBLE PRECISION,
		rsi             DOUBLE PRECISION,
		macd            DOUBLE PRECISION,
		volume_ratio    DOUBLE PRECISION,
		support         DOUBLE PRECISION,
		pressure        DOUBLE PRECISION,
		trend           TEXT,
		actions         TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_code_ts ON analysis_snapshots(code, timestamp)`,

	`CREATE TABLE IF NOT EXISTS scan_runs (
		id          TEXT PRIMARY KEY,
		market      TEXT,
		source      TEXT,
		started_at  BIGINT NOT NULL,
		finished_at BIGINT,
		pool_size   INTEGER,
		hits        INTEGER,
		errors      INTEGER,
		min_weekly  INTEGER,
		top_codes   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_started ON scan_runs(started_at)`,
}

func (r *PostgresRecorder) Close() error {
	r.logger.Info("closing postgres recorder")
	return r.db.Close()
}
