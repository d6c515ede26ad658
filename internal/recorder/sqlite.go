package recorder

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	*sqlRecorder
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read history while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{sqlRecorder: &sqlRecorder{db: db}, logger: logger.Named("recorder")}
	if err := r.migrate(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_snapshots (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp       INTEGER NOT NULL,
		code            TEXT NOT NULL,
		market          TEXT,
		price           REAL,
		live            INTEGER,
		weekly_prob     INTEGER,
		monthly_prob    INTEGER,
		composite_score REAL,
		rsi             REAL,
		macd            REAL,
		volume_ratio    REAL,
		support         REAL,
		pressure        REAL,
		trend           TEXT,
		actions         TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_code_ts ON analysis_snapshots(code, timestamp)`,

	`CREATE TABLE IF NOT EXISTS scan_runs (
		id          TEXT PRIMARY KEY,
		market      TEXT,
		source      TEXT,
		started_at  INTEGER NOT NULL,
		finished_at INTEGER,
		pool_size   INTEGER,
		hits        INTEGER,
		errors      INTEGER,
		min_weekly  INTEGER,
		top_codes   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_started ON scan_runs(started_at)`,
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
