package recorder

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// sqlRecorder holds the queries shared by the SQLite and Postgres backends.
// Queries are written with "?" placeholders and rebound per dialect.
type sqlRecorder struct {
	db       *sql.DB
	mu       sync.Mutex
	numbered bool // "$1" placeholders
}

func (r *sqlRecorder) rebind(query string) string {
	if !r.numbered {
		return query
	}
	return rebindNumbered(query)
}

func rebindNumbered(query string) string {
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *sqlRecorder) migrate(stmts []string) error {
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:min(len(s), 40)], err)
		}
	}
	return nil
}

func joinList[T ~string](items []T) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = string(it)
	}
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (r *sqlRecorder) RecordAnalysis(snap *model.AnalysisSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := snap.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(r.rebind(`INSERT INTO analysis_snapshots
		(timestamp, code, market, price, live, weekly_prob, monthly_prob,
		 composite_score, rsi, macd, volume_ratio, support, pressure, trend, actions)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		at.Unix(), snap.Code, string(snap.Market), snap.Price, snap.Live,
		snap.WeeklyProb, snap.MonthlyProb, snap.CompositeScore,
		snap.RSI, snap.MACD, snap.VolumeRatio, snap.Support, snap.Pressure,
		string(snap.Trend), joinList(snap.Actions),
	)
	return err
}

func (r *sqlRecorder) RecordScan(run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(r.rebind(`INSERT INTO scan_runs
		(id, market, source, started_at, finished_at, pool_size, hits, errors, min_weekly, top_codes)
		VALUES (?,?,?,?,?,?,?,?,?,?)`),
		run.ID, string(run.Market), run.Source, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.PoolSize, run.Hits, run.Errors, run.MinWeekly, strings.Join(run.TopCodes, ","),
	)
	return err
}

// RecentAnalyses returns up to limit snapshots for code, newest first.
func (r *sqlRecorder) RecentAnalyses(code string, limit int) ([]model.AnalysisSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(r.rebind(`SELECT timestamp, code, market, price, live, weekly_prob,
		monthly_prob, composite_score, rsi, macd, volume_ratio, support, pressure, trend, actions
		FROM analysis_snapshots WHERE code = ? ORDER BY timestamp DESC, id DESC LIMIT ?`), code, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []model.AnalysisSnapshot
	for rows.Next() {
		var (
			s              model.AnalysisSnapshot
			ts             int64
			mkt, trend, ac string
		)
		if err := rows.Scan(&ts, &s.Code, &mkt, &s.Price, &s.Live, &s.WeeklyProb,
			&s.MonthlyProb, &s.CompositeScore, &s.RSI, &s.MACD, &s.VolumeRatio,
			&s.Support, &s.Pressure, &trend, &ac); err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		s.At = time.Unix(ts, 0)
		s.Market = model.Market(mkt)
		s.Trend = model.TrendRegime(trend)
		for _, a := range splitList(ac) {
			s.Actions = append(s.Actions, model.ActionTag(a))
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecentScans returns up to limit scan runs, newest first.
func (r *sqlRecorder) RecentScans(limit int) ([]ScanRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(r.rebind(`SELECT id, market, source, started_at, finished_at,
		pool_size, hits, errors, min_weekly, top_codes
		FROM scan_runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanRun
	for rows.Next() {
		var (
			run               ScanRun
			mkt, top          string
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &mkt, &run.Source, &started, &finished,
			&run.PoolSize, &run.Hits, &run.Errors, &run.MinWeekly, &top); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.Market = model.Market(mkt)
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		run.TopCodes = splitList(top)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *sqlRecorder) Close() error {
	return r.db.Close()
}
