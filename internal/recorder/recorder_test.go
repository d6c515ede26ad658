package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteAnalysisRoundTrip(t *testing.T) {
	r := openTestDB(t)
	base := time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		snap := &model.AnalysisSnapshot{
			Code:           "2330",
			Market:         model.MarketTW,
			At:             base.Add(time.Duration(i) * time.Hour),
			Price:          580 + float64(i),
			Live:           i == 2,
			WeeklyProb:     60 + i,
			MonthlyProb:    70,
			CompositeScore: 64,
			RSI:            55.5,
			Trend:          model.TrendFullBull,
			Actions:        []model.ActionTag{model.ActionBuyZone, model.ActionMACDBullish},
		}
		if err := r.RecordAnalysis(snap); err != nil {
			t.Fatalf("RecordAnalysis: %v", err)
		}
	}
	if err := r.RecordAnalysis(&model.AnalysisSnapshot{Code: "AAPL", Market: model.MarketUS, At: base}); err != nil {
		t.Fatal(err)
	}

	got, err := r.RecentAnalyses("2330", 2)
	if err != nil {
		t.Fatalf("RecentAnalyses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	newest := got[0]
	if newest.Price != 582 || !newest.Live || newest.WeeklyProb != 62 {
		t.Errorf("newest = %+v", newest)
	}
	if !newest.At.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("at = %v", newest.At)
	}
	if newest.Trend != model.TrendFullBull || len(newest.Actions) != 2 || newest.Actions[1] != model.ActionMACDBullish {
		t.Errorf("trend/actions = %v %v", newest.Trend, newest.Actions)
	}
	if got[1].Live {
		t.Errorf("older snapshot should not be live")
	}

	us, _ := r.RecentAnalyses("AAPL", 10)
	if len(us) != 1 || us[0].Actions != nil {
		t.Errorf("AAPL = %+v", us)
	}
}

func TestSQLiteScanRuns(t *testing.T) {
	r := openTestDB(t)
	start := time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)
	runs := []*ScanRun{
		{ID: "a", Market: model.MarketTW, Source: "cron", StartedAt: start, FinishedAt: start.Add(time.Minute), PoolSize: 900, Hits: 2, TopCodes: []string{"2330", "2317"}},
		{ID: "b", Market: model.MarketUS, Source: "ws", StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour), PoolSize: 5},
	}
	for _, run := range runs {
		if err := r.RecordScan(run); err != nil {
			t.Fatalf("RecordScan: %v", err)
		}
	}

	got, err := r.RecentScans(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("runs = %+v", got)
	}
	if got[1].PoolSize != 900 || len(got[1].TopCodes) != 2 || got[1].Source != "cron" {
		t.Errorf("run a = %+v", got[1])
	}
	if got[0].TopCodes != nil {
		t.Errorf("empty top codes should read back nil")
	}
}

func TestRebindNumbered(t *testing.T) {
	got := rebindNumbered("INSERT INTO t (a, b) VALUES (?,?) LIMIT ?")
	want := "INSERT INTO t (a, b) VALUES ($1,$2) LIMIT $3"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordAnalysis(&model.AnalysisSnapshot{}); err != nil {
		t.Error(err)
	}
	if got, err := r.RecentAnalyses("2330", 5); got != nil || err != nil {
		t.Errorf("got %v, %v", got, err)
	}
}
