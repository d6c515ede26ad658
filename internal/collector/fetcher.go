package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// Fetcher defines the interface for fetching historical daily bars.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, code string, days int) (model.Series, error)
	Name() string
}

// QuoteSource defines the interface for fetching a realtime quote.
// Sources report "no trade yet" via Quote.NoTrade rather than an error.
type QuoteSource interface {
	FetchQuote(ctx context.Context, code string) (*model.Quote, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
