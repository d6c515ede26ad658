package collector

import (
	"context"
	"fmt"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaQuoteSource reads US quotes from the Alpaca market data snapshot endpoint.
type AlpacaQuoteSource struct {
	client *marketdata.Client
}

// NewAlpacaQuoteSource creates an Alpaca quote source from API credentials.
// An empty baseURL selects the SDK's default data endpoint.
func NewAlpacaQuoteSource(apiKey, apiSecret, baseURL string) *AlpacaQuoteSource {
	return &AlpacaQuoteSource{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

func (s *AlpacaQuoteSource) Name() string { return "alpaca" }

func (s *AlpacaQuoteSource) FetchQuote(ctx context.Context, code string) (*model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := s.client.GetSnapshot(code, marketdata.GetSnapshotRequest{})
	if err != nil {
		return nil, fmt.Errorf("alpaca snapshot %s: %w", code, err)
	}
	if snap == nil || snap.LatestTrade == nil {
		return &model.Quote{NoTrade: true}, nil
	}

	q := &model.Quote{
		Price: snap.LatestTrade.Price,
		Time:  snap.LatestTrade.Timestamp,
	}
	if snap.DailyBar != nil {
		q.High = snap.DailyBar.High
		q.Low = snap.DailyBar.Low
		q.Volume = float64(snap.DailyBar.Volume)
	}
	if q.Price <= 0 {
		q.NoTrade = true
	}
	return q, nil
}
