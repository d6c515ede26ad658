package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%s"

// YahooFetcher implements Fetcher and QuoteSource using the Yahoo Finance chart API.
// Taiwan codes are queried with the ".TW" suffix.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string // chart URL format, overridable in tests
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:  newHTTPClient(proxyURL, 30*time.Second),
		BaseURL: yahooChartURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       yahooMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooMeta struct {
	Symbol               string  `json:"symbol"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  float64 `json:"regularMarketVolume"`
	RegularMarketTime    int64   `json:"regularMarketTime"`
}

func deref(p []*float64, i int) float64 {
	if i >= len(p) || p[i] == nil {
		return 0
	}
	return *p[i]
}

func (f *YahooFetcher) fetchChart(ctx context.Context, code, interval, rng string) (model.Series, *yahooMeta, error) {
	symbol := market.YahooSymbol(code)
	u := fmt.Sprintf(f.BaseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrDataUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo api error %s: %w", chart.Chart.Error.Description, model.ErrDataUnavailable)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	meta := result.Meta
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, &meta, nil
	}
	quote := result.Indicators.Quote[0]
	bars := make(model.Series, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := deref(quote.Open, i)
		h := deref(quote.High, i)
		l := deref(quote.Low, i)
		c := deref(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: deref(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return dedupeByTime(bars), &meta, nil
}

// dedupeByTime keeps the later of two bars sharing a timestamp so the series stays strictly increasing.
func dedupeByTime(bars model.Series) model.Series {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// FetchDailyBars returns at most days daily bars, oldest first.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, code string, days int) (model.Series, error) {
	rng := "2y"
	if days <= 30 {
		rng = "1mo"
	} else if days <= 90 {
		rng = "3mo"
	} else if days <= 180 {
		rng = "6mo"
	} else if days <= 365 {
		rng = "1y"
	}
	bars, _, err := f.fetchChart(ctx, code, "1d", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", code, model.ErrDataUnavailable)
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// FetchQuote reads the regular-market fields of the chart metadata.
func (f *YahooFetcher) FetchQuote(ctx context.Context, code string) (*model.Quote, error) {
	_, meta, err := f.fetchChart(ctx, code, "1d", "1d")
	if err != nil {
		return nil, err
	}
	q := &model.Quote{
		Price:  meta.RegularMarketPrice,
		High:   meta.RegularMarketDayHigh,
		Low:    meta.RegularMarketDayLow,
		Volume: meta.RegularMarketVolume,
	}
	if meta.RegularMarketTime > 0 {
		q.Time = time.Unix(meta.RegularMarketTime, 0)
	}
	if q.Price <= 0 {
		q.NoTrade = true
	}
	return q, nil
}
