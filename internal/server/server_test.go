package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/collector"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/recorder"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/session"

	"github.com/gorilla/websocket"
)

type fakeAnalyzer struct {
	weekly map[string]int
	errs   map[string]error
	block  chan struct{} // when set, Analyze waits on it or ctx
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, code string) (*model.Analysis, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.errs[code]; ok {
		return nil, err
	}
	w, ok := f.weekly[code]
	if !ok {
		return nil, model.ErrDataUnavailable
	}
	return &model.Analysis{
		Code:   code,
		Market: model.MarketTW,
		Result: &model.ScoreResult{
			WeeklyProb:     w,
			MonthlyProb:    50,
			CompositeScore: float64(w),
			Indicators:     model.Indicators{Price: 100},
		},
	}, nil
}

type memRecorder struct {
	recorder.NoopRecorder
	mu    sync.Mutex
	snaps []model.AnalysisSnapshot
	runs  []recorder.ScanRun
}

func (m *memRecorder) RecordAnalysis(s *model.AnalysisSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, *s)
	return nil
}

func (m *memRecorder) RecordScan(r *recorder.ScanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *r)
	return nil
}

func (m *memRecorder) RecentAnalyses(code string, limit int) ([]model.AnalysisSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AnalysisSnapshot
	for i := len(m.snaps) - 1; i >= 0 && len(out) < limit; i-- {
		if m.snaps[i].Code == code {
			out = append(out, m.snaps[i])
		}
	}
	return out, nil
}

func (m *memRecorder) RecentScans(limit int) ([]recorder.ScanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recorder.ScanRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *memRecorder) scanRuns() []recorder.ScanRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recorder.ScanRun(nil), m.runs...)
}

func newTestServer(an *fakeAnalyzer) (*Server, *memRecorder) {
	rec := &memRecorder{}
	s := New(Options{
		Analyzer: an,
		Pools: map[model.Market]collector.PoolSource{
			model.MarketTW: collector.StaticPool{"2330", "2317", "9999", "2454"},
		},
		Sessions: session.NewStore(10),
		Recorder: rec,
		Scan:     ScanDefaults{Limit: 10, MinWeekly: 60},
		Mode:     "test",
	})
	return s, rec
}

func defaultAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		weekly: map[string]int{"2330": 75, "2317": 40, "2454": 85, "0050": 70},
		errs:   map[string]error{"1234": model.ErrInsufficientHistory},
	}
}

func do(t *testing.T, s *Server, method, path, sid, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.Header.Set(SessionHeader, sid)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(defaultAnalyzer())
	w := do(t, s, http.MethodGet, "/api/health", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestAnalysisStatusCodes(t *testing.T) {
	s, rec := newTestServer(defaultAnalyzer())
	tests := []struct {
		code string
		want int
	}{
		{"2330", http.StatusOK},
		{"9999", http.StatusNotFound},
		{"1234", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := do(t, s, http.MethodGet, "/api/analysis/"+tt.code, "", "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
	if len(rec.snaps) != 1 {
		t.Errorf("recorded %d snapshots, want 1", len(rec.snaps))
	}

	w := do(t, s, http.MethodGet, "/api/analysis/2330/history?limit=5", "", "")
	var snaps []model.AnalysisSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snaps); err != nil || len(snaps) != 1 || snaps[0].WeeklyProb != 75 {
		t.Errorf("history = %s (%v)", w.Body.String(), err)
	}
	if w := do(t, s, http.MethodGet, "/api/analysis/2330/history?limit=0", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/analysis/2317/history", "", ""); w.Body.String() != "[]" {
		t.Errorf("empty history = %s", w.Body.String())
	}
}

func TestSessionFlow(t *testing.T) {
	s, _ := newTestServer(defaultAnalyzer())

	w := do(t, s, http.MethodPost, "/api/session", "", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var sess session.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}

	if w := do(t, s, http.MethodPut, "/api/session/view", sess.ID, `{"view":"learn","user":"amy"}`); w.Code != http.StatusOK {
		t.Errorf("put view = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodPut, "/api/session/view", sess.ID, `{"view":"nope"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad view = %d", w.Code)
	}
	if w := do(t, s, http.MethodPut, "/api/session/view", "unknown", `{"view":"learn"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown session = %d", w.Code)
	}

	do(t, s, http.MethodGet, "/api/analysis/2330", sess.ID, "")
	w = do(t, s, http.MethodGet, "/api/session", sess.ID, "")
	var got session.Session
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.View != session.ViewAnalysis || got.Code != "2330" || got.User != "amy" {
		t.Errorf("session after analysis = %+v", got)
	}
	if w := do(t, s, http.MethodGet, "/api/session", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing header = %d", w.Code)
	}
}

func TestScanPool(t *testing.T) {
	s, _ := newTestServer(defaultAnalyzer())
	w := do(t, s, http.MethodGet, "/api/scan/pool?market=tw", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":4`) {
		t.Errorf("pool = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodGet, "/api/scan/pool?market=us", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("us pool = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/scan/pool?market=jp", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("jp pool = %d", w.Code)
	}
}

func dialScan(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/scan?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestScanStream(t *testing.T) {
	s, rec := newTestServer(defaultAnalyzer())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialScan(t, srv, "market=tw&min_weekly=60")
	var frames []scanMessage
	for {
		var msg scanMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		frames = append(frames, msg)
		if msg.Type == "done" {
			break
		}
	}

	var types []string
	for _, f := range frames {
		types = append(types, f.Type)
	}
	if strings.Join(types, ",") != "hit,error,hit,done" {
		t.Fatalf("frames = %v", types)
	}
	if frames[0].Hit.Code != "2330" || frames[1].Code != "9999" || frames[2].Hit.Code != "2454" {
		t.Errorf("frames = %+v", frames)
	}
	done := frames[3]
	if done.Pool != 4 || done.Hits != 2 || done.Errors != 1 || done.RunID == "" {
		t.Errorf("done = %+v", done)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.scanRuns()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if runs := rec.scanRuns(); len(runs) != 1 || runs[0].Source != "ws" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestScanStreamLimit(t *testing.T) {
	s, _ := newTestServer(defaultAnalyzer())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialScan(t, srv, "limit=1")
	var hits int
	for {
		var msg scanMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "hit" {
			hits++
		}
		if msg.Type == "done" {
			break
		}
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestScanCancelledOnClose(t *testing.T) {
	an := defaultAnalyzer()
	an.block = make(chan struct{})
	s, rec := newTestServer(an)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialScan(t, srv, "market=tw")
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for len(rec.scanRuns()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	runs := rec.scanRuns()
	if len(runs) != 1 {
		t.Fatalf("scan did not stop after client closed")
	}
	if runs[0].Hits != 0 {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestScanBadParams(t *testing.T) {
	s, _ := newTestServer(defaultAnalyzer())
	for _, q := range []string{"market=jp", "limit=-1", "min_weekly=101", "market=us"} {
		w := do(t, s, http.MethodGet, "/api/scan?"+q, "", "")
		if w.Code != http.StatusBadRequest && w.Code != http.StatusNotFound {
			t.Errorf("%s: status %d", q, w.Code)
		}
	}
}

func TestScanRuns(t *testing.T) {
	s, rec := newTestServer(defaultAnalyzer())
	if w := do(t, s, http.MethodGet, "/api/scan/runs", "", ""); w.Body.String() != "[]" {
		t.Errorf("empty runs = %s", w.Body.String())
	}
	for _, id := range []string{"a", "b", "c"} {
		rec.RecordScan(&recorder.ScanRun{ID: id, Market: model.MarketTW, Source: "cron"})
	}

	w := do(t, s, http.MethodGet, "/api/scan/runs?limit=2", "", "")
	var runs []recorder.ScanRun
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode: %v: %s", err, w.Body.String())
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("runs = %+v", runs)
	}
	if w := do(t, s, http.MethodGet, "/api/scan/runs?limit=abc", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
}
