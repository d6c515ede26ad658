package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

type fakeAnalyzer struct {
	mu     sync.Mutex
	weekly map[string]int
	errs   map[string]error
	seen   []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, code string) (*model.Analysis, error) {
	f.mu.Lock()
	f.seen = append(f.seen, code)
	f.mu.Unlock()
	if err, ok := f.errs[code]; ok {
		return nil, err
	}
	w := f.weekly[code]
	return &model.Analysis{
		Code: code,
		Result: &model.ScoreResult{
			WeeklyProb:     w,
			MonthlyProb:    50,
			CompositeScore: float64(w)*0.6 + 50*0.4,
		},
	}, nil
}

func codesOf(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Code
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScanFiltersAndLimits(t *testing.T) {
	fa := &fakeAnalyzer{weekly: map[string]int{"A": 70, "B": 40, "C": 85, "D": 60, "E": 90}}
	codes := []string{"A", "B", "C", "D", "E"}

	tests := []struct {
		name      string
		limit     int
		minWeekly int
		want      []string
	}{
		{"no filter", 0, 0, []string{"E", "C", "A", "D", "B"}},
		{"threshold inclusive", 0, 60, []string{"E", "C", "A", "D"}},
		{"limit stops scan", 2, 60, []string{"C", "A"}},
		{"nothing passes", 0, 99, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scanner{Analyzer: fa, Limit: tt.limit, MinWeekly: tt.minWeekly}
			hits, errs := Collect(s.Scan(context.Background(), codes))
			if len(errs) != 0 {
				t.Fatalf("errs = %v", errs)
			}
			if got := codesOf(hits); !equal(got, tt.want) {
				t.Errorf("hits = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanLimitStopsAnalyzing(t *testing.T) {
	fa := &fakeAnalyzer{weekly: map[string]int{"A": 70, "B": 70, "C": 70}}
	s := &Scanner{Analyzer: fa, Limit: 1}
	Collect(s.Scan(context.Background(), []string{"A", "B", "C"}))
	if len(fa.seen) != 1 {
		t.Errorf("analyzed %v after limit reached", fa.seen)
	}
}

func TestScanYieldsErrorsAndContinues(t *testing.T) {
	fa := &fakeAnalyzer{
		weekly: map[string]int{"A": 70, "C": 80},
		errs:   map[string]error{"B": model.ErrDataUnavailable},
	}
	s := &Scanner{Analyzer: fa}
	hits, errs := Collect(s.Scan(context.Background(), []string{"A", "B", "C"}))
	if got := codesOf(hits); !equal(got, []string{"C", "A"}) {
		t.Errorf("hits = %v", got)
	}
	if len(errs) != 1 || !errors.Is(errs[0], model.ErrDataUnavailable) {
		t.Fatalf("errs = %v", errs)
	}
	var ce *CodeError
	if !errors.As(errs[0], &ce) || ce.Code != "B" {
		t.Errorf("error not attributed to B: %v", errs[0])
	}
}

func TestScanRestartable(t *testing.T) {
	fa := &fakeAnalyzer{weekly: map[string]int{"A": 70, "B": 80}}
	seq := (&Scanner{Analyzer: fa}).Scan(context.Background(), []string{"A", "B"})
	first, _ := Collect(seq)
	second, _ := Collect(seq)
	if !equal(codesOf(first), codesOf(second)) || len(fa.seen) != 4 {
		t.Errorf("first=%v second=%v seen=%v", codesOf(first), codesOf(second), fa.seen)
	}
}

func TestScanConsumerBreak(t *testing.T) {
	fa := &fakeAnalyzer{weekly: map[string]int{"A": 70, "B": 80, "C": 90}}
	s := &Scanner{Analyzer: fa}
	for h := range s.Scan(context.Background(), []string{"A", "B", "C"}) {
		if h.Code == "A" {
			break
		}
	}
	if len(fa.seen) != 1 {
		t.Errorf("seen = %v", fa.seen)
	}
}

func TestScanCancelDuringDelay(t *testing.T) {
	fa := &fakeAnalyzer{weekly: map[string]int{"A": 70, "B": 80}}
	s := &Scanner{Analyzer: fa, Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan []Hit)
	go func() {
		var hits []Hit
		for h, err := range s.Scan(ctx, []string{"A", "B"}) {
			if err == nil {
				hits = append(hits, h)
				cancel()
			}
		}
		done <- hits
	}()

	select {
	case hits := <-done:
		if len(hits) != 1 || hits[0].Code != "A" {
			t.Errorf("hits = %v", codesOf(hits))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not stop on cancel")
	}
}

func TestScanCancelledBeforeStart(t *testing.T) {
	fa := &fakeAnalyzer{weekly: map[string]int{"A": 70}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hits, errs := Collect((&Scanner{Analyzer: fa}).Scan(ctx, []string{"A"}))
	if len(hits) != 0 || len(errs) != 0 || len(fa.seen) != 0 {
		t.Errorf("hits=%v errs=%v seen=%v", hits, errs, fa.seen)
	}
}
