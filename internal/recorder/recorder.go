package recorder

import (
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// ScanRun summarizes one completed pool scan.
type ScanRun struct {
	ID         string       `json:"id"`
	Market     model.Market `json:"market"`
	Source     string       `json:"source"` // "cron", "chat" or "ws"
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	PoolSize   int          `json:"pool_size"`
	Hits       int          `json:"hits"`
	Errors     int          `json:"errors"`
	MinWeekly  int          `json:"min_weekly"`
	TopCodes   []string     `json:"top_codes"`
}

// Recorder persists analysis snapshots and scan runs.
type Recorder interface {
	RecordAnalysis(snap *model.AnalysisSnapshot) error
	RecordScan(run *ScanRun) error
	RecentAnalyses(code string, limit int) ([]model.AnalysisSnapshot, error)
	RecentScans(limit int) ([]ScanRun, error)
	Close() error
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*PostgresRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
