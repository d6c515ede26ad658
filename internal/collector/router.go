package collector

import (
	"context"
	"fmt"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// RouterQuoteSource dispatches to a per-market quote source.
type RouterQuoteSource struct {
	Sources map[model.Market]QuoteSource
}

func (r *RouterQuoteSource) Name() string { return "router" }

func (r *RouterQuoteSource) FetchQuote(ctx context.Context, code string) (*model.Quote, error) {
	src, ok := r.Sources[market.Classify(code)]
	if !ok || src == nil {
		return nil, fmt.Errorf("no quote source for %s: %w", code, model.ErrQuoteUnavailable)
	}
	return src.FetchQuote(ctx, code)
}

// SafeQuote wraps a source so a panic inside it surfaces as ErrQuoteUnavailable.
type SafeQuote struct {
	Source QuoteSource
}

func (s SafeQuote) Name() string { return s.Source.Name() }

func (s SafeQuote) FetchQuote(ctx context.Context, code string) (q *model.Quote, err error) {
	defer func() {
		if r := recover(); r != nil {
			q = nil
			err = fmt.Errorf("%s panicked: %v: %w", s.Source.Name(), r, model.ErrQuoteUnavailable)
		}
	}()
	return s.Source.FetchQuote(ctx, code)
}
