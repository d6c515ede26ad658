package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/reconciler"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/strategy"

	"go.uber.org/zap"
)

// DefaultHistoryDays is the daily window fetched per analysis.
const DefaultHistoryDays = 120

// Collector orchestrates fetching, live-quote reconciliation and scoring.
type Collector struct {
	Fetcher     Fetcher
	Quotes      QuoteSource // optional
	Clocks      market.Clocks
	HistoryDays int
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewCollector creates a new Collector. quotes may be nil to disable live reconciliation.
func NewCollector(fetcher Fetcher, quotes QuoteSource, clocks market.Clocks, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher:     fetcher,
		Quotes:      quotes,
		Clocks:      clocks,
		HistoryDays: DefaultHistoryDays,
		Logger:      logger.Named("collector"),
		Now:         time.Now,
	}
}

func (c *Collector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Analyze fetches history for code, merges today's quote when one is usable and
// scores the result. A failed quote degrades to a history-only analysis.
func (c *Collector) Analyze(ctx context.Context, code string) (*model.Analysis, error) {
	code = market.Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("empty code: %w", model.ErrDataUnavailable)
	}
	days := c.HistoryDays
	if days <= 0 {
		days = DefaultHistoryDays
	}

	series, err := c.Fetcher.FetchDailyBars(ctx, code, days)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars %s: %w", code, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("fetch daily bars %s: %w", code, model.ErrDataUnavailable)
	}

	now := c.now()
	an := &model.Analysis{
		Code:   code,
		Market: market.Classify(code),
		At:     now,
	}

	if merged, lq, ok := c.live(ctx, code, series, now); ok {
		series = merged
		an.Quote = lq
		an.Live = true
	}

	result, err := strategy.Evaluate(series)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", code, err)
	}
	an.Series = series
	an.Result = result
	return an, nil
}

func (c *Collector) live(ctx context.Context, code string, series model.Series, now time.Time) (model.Series, *model.LiveQuote, bool) {
	if c.Quotes == nil {
		return nil, nil, false
	}
	clock := c.Clocks.For(code)
	if clock == nil {
		return nil, nil, false
	}
	if !clock.IsTradingDay(now) {
		return nil, nil, false
	}
	today := clock.Today(now)

	q, err := SafeQuote{Source: c.Quotes}.FetchQuote(ctx, code)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.Logger.Warn("quote fetch failed", zap.String("code", code), zap.Error(err))
		}
		return nil, nil, false
	}
	// A quote stamped on an earlier date is the previous session's close.
	if q != nil && !q.Time.IsZero() && market.DateOf(q.Time, clock.Location).Before(today) {
		c.Logger.Debug("stale quote ignored", zap.String("code", code), zap.Time("quote_time", q.Time))
		return nil, nil, false
	}

	merged, lq, err := reconciler.Reconcile(series, q, today)
	if err != nil {
		c.Logger.Debug("quote not merged", zap.String("code", code), zap.Error(err))
		return nil, nil, false
	}
	return merged, lq, true
}
