package scanner

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// Analyzer produces a scored analysis for one code.
type Analyzer interface {
	Analyze(ctx context.Context, code string) (*model.Analysis, error)
}

// Hit is a code that passed the weekly-probability threshold.
type Hit struct {
	Code           string            `json:"code"`
	Price          float64           `json:"price"`
	WeeklyProb     int               `json:"weekly_prob"`
	MonthlyProb    int               `json:"monthly_prob"`
	CompositeScore float64           `json:"composite_score"`
	Trend          model.TrendRegime `json:"trend"`
	Actions        []model.ActionTag `json:"actions"`
	Narrative      string            `json:"narrative"`
	Live           bool              `json:"live"`

	Analysis *model.Analysis `json:"-"`
}

func newHit(an *model.Analysis) Hit {
	r := an.Result
	return Hit{
		Code:           an.Code,
		Price:          r.Indicators.Price,
		WeeklyProb:     r.WeeklyProb,
		MonthlyProb:    r.MonthlyProb,
		CompositeScore: r.CompositeScore,
		Trend:          r.Trend,
		Actions:        r.Actions,
		Narrative:      r.Narrative,
		Live:           an.Live,
		Analysis:       an,
	}
}

// CodeError is a per-code failure; the scan continues past it.
type CodeError struct {
	Code string
	Err  error
}

func (e *CodeError) Error() string { return fmt.Sprintf("scan %s: %v", e.Code, e.Err) }
func (e *CodeError) Unwrap() error { return e.Err }

// Scanner walks a code list sequentially with a fixed pause between codes.
type Scanner struct {
	Analyzer  Analyzer
	Delay     time.Duration
	Limit     int // stop after this many hits; 0 means no cap
	MinWeekly int
}

// Scan returns a lazy sequence of hits. Per-code failures are yielded as
// *CodeError with a zero-valued Hit carrying only the code. The sequence
// ends early when ctx is done, the hit limit is reached or the consumer
// stops iterating. Each iteration starts again from the first code.
func (s *Scanner) Scan(ctx context.Context, codes []string) iter.Seq2[Hit, error] {
	return func(yield func(Hit, error) bool) {
		hits := 0
		for i, code := range codes {
			if ctx.Err() != nil {
				return
			}
			if i > 0 && !s.pause(ctx) {
				return
			}

			an, err := s.Analyzer.Analyze(ctx, code)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !yield(Hit{Code: code}, &CodeError{Code: code, Err: err}) {
					return
				}
				continue
			}
			if an == nil || an.Result == nil || an.Result.WeeklyProb < s.MinWeekly {
				continue
			}
			if !yield(newHit(an), nil) {
				return
			}
			hits++
			if s.Limit > 0 && hits >= s.Limit {
				return
			}
		}
	}
}

func (s *Scanner) pause(ctx context.Context) bool {
	if s.Delay <= 0 {
		return true
	}
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Collect drains seq and returns hits ordered by composite score, highest
// first, together with the per-code errors in scan order.
func Collect(seq iter.Seq2[Hit, error]) ([]Hit, []error) {
	var hits []Hit
	var errs []error
	for h, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		hits = append(hits, h)
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.CompositeScore, a.CompositeScore)
	})
	return hits, errs
}
