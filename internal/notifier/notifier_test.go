package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

type fakeTelegram struct {
	mu       sync.Mutex
	failures int
	sent     []map[string]string
	paths    []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)
	if f.failures > 0 {
		f.failures--
		http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
		return
	}
	var payload map[string]string
	json.NewDecoder(r.Body).Decode(&payload)
	f.sent = append(f.sent, payload)
	w.Write([]byte(`{"ok":true}`))
}

func newTestNotifier(t *testing.T, f *fakeTelegram) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "", nil)
	n.BaseURL = srv.URL
	return n
}

func TestSend(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)
	if err := n.Send(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if f.paths[0] != "/botTOKEN/sendMessage" {
		t.Errorf("path = %s", f.paths[0])
	}
	if got := f.sent[0]; got["chat_id"] != "42" || got["parse_mode"] != "HTML" || got["text"] != "<b>hi</b>" {
		t.Errorf("payload = %v", got)
	}
}

func TestSendWithRetry(t *testing.T) {
	f := &fakeTelegram{failures: 1}
	n := newTestNotifier(t, f)
	if err := n.SendWithRetry(context.Background(), "x", 1); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if len(f.sent) != 1 || len(f.paths) != 2 {
		t.Errorf("sent=%d attempts=%d", len(f.sent), len(f.paths))
	}

	f = &fakeTelegram{failures: 10}
	n = newTestNotifier(t, f)
	if err := n.SendWithRetry(context.Background(), "x", 0); err == nil {
		t.Errorf("expected exhausted retries")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := n.SendWithRetry(ctx, "x", 5); err == nil {
		t.Errorf("expected context error")
	}
}

func TestFormatScanDigest(t *testing.T) {
	d := ScanDigest{
		Market:    model.MarketTW,
		At:        time.Date(2024, 1, 3, 14, 0, 0, 0, time.UTC),
		PoolSize:  900,
		Errors:    3,
		MinWeekly: 60,
		Hits: []DigestHit{
			{Code: "2330", Price: 580, WeeklyProb: 75, MonthlyProb: 80, CompositeScore: 77, Actions: []model.ActionTag{model.ActionBuyZone}},
			{Code: "2317", Price: 105.5, WeeklyProb: 65, MonthlyProb: 70, CompositeScore: 67},
		},
	}
	msg := FormatScanDigest(d)
	for _, want := range []string{"台股掃描", "掃描 900 檔", "命中 2", "失敗 3", "1. <b>2330</b> 580.00", "BUY_ZONE", "2. <b>2317</b> 105.50"} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}

	d.Hits = nil
	if msg := FormatScanDigest(d); !strings.Contains(msg, "本次無符合條件的標的") {
		t.Errorf("empty digest = %s", msg)
	}
}

func TestFormatAnalysis(t *testing.T) {
	an := &model.Analysis{
		Code: "2330",
		Live: true,
		At:   time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		Quote: &model.LiveQuote{
			Price: 580, Change: 5, ChangePct: 0.87,
		},
		Result: &model.ScoreResult{
			WeeklyProb:     75,
			MonthlyProb:    60,
			CompositeScore: 69,
			Narrative:      "股價 580.00 站上所有均線",
			WeeklyFactors:  []model.FactorScore{{Name: "價格>MA5", Weight: 15, Hit: true}, {Name: "RSI>80", Weight: -10}},
			Actions:        []model.ActionTag{model.ActionMACDBullish},
			Indicators:     model.Indicators{Price: 580},
		},
	}
	msg := FormatAnalysis(an)
	for _, want := range []string{"<b>2330</b>", "(盤中)", "+5.00", "一週上漲機率 <b>75%</b>", "價格&gt;MA5 +15", "MACD_BULLISH", "股價 580.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("analysis missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "RSI&gt;80") {
		t.Errorf("unfired factor listed")
	}
}

func TestStartPollingFiltersChat(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	polls := 0
	replied := make(chan struct{}, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		polls++
		first := polls == 1
		mu.Unlock()
		if !first {
			<-r.Context().Done()
			return
		}
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":10,"message":{"text":"/scan us","chat":{"id":7}}},
			{"update_id":11,"message":{"text":" /analyze 2330 ","chat":{"id":42}}}
		]}`))
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		replies = append(replies, payload["text"])
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
		replied <- struct{}{}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "", nil)
	n.BaseURL = srv.URL

	var commands []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			commands = append(commands, cmd)
			return "ok " + cmd
		})
	}()

	select {
	case <-replied:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}

	if len(commands) != 1 || commands[0] != "/analyze 2330" {
		t.Errorf("commands = %v", commands)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 || replies[0] != "ok /analyze 2330" {
		t.Errorf("replies = %v", replies)
	}
}

func TestStartPollingSlowCommandDoesNotBlock(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	updates := []string{
		`{"ok":true,"result":[{"update_id":1,"message":{"text":"/scan tw","chat":{"id":42}}}]}`,
		`{"ok":true,"result":[{"update_id":2,"message":{"text":"/analyze 2330","chat":{"id":42}}}]}`,
	}
	replies := make(chan string, 2)

	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		i := polls
		polls++
		mu.Unlock()
		if i >= len(updates) {
			<-r.Context().Done()
			return
		}
		w.Write([]byte(updates[i]))
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok":true}`))
		replies <- payload["text"]
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "", nil)
	n.BaseURL = srv.URL

	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			if strings.HasPrefix(cmd, "/scan") {
				<-release
			}
			return "done " + cmd
		})
	}()

	select {
	case got := <-replies:
		if got != "done /analyze 2330" {
			t.Errorf("first reply = %q, want the analyze reply", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("analyze command waited for the running scan")
	}
	close(release)
	select {
	case got := <-replies:
		if got != "done /scan tw" {
			t.Errorf("second reply = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scan reply not sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}
