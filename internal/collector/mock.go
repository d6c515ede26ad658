package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Bars   map[string]model.Series
	Err    error
	End    time.Time // date of the last generated bar; zero means today
	mu     sync.Mutex
	called map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, code string, days int) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.called == nil {
		m.called = make(map[string]int)
	}
	m.called[code]++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		s, ok := m.Bars[code]
		if !ok {
			return nil, fmt.Errorf("mock %s: %w", code, model.ErrDataUnavailable)
		}
		return s.Clone(), nil
	}
	end := m.End
	if end.IsZero() {
		end = time.Now()
	}
	return GenerateBars(m.Price, days, end), nil
}

// Calls reports how many times code was fetched.
func (m *MockFetcher) Calls(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called[code]
}

// GenerateBars builds a gently rising daily series ending on end's date.
func GenerateBars(basePrice float64, count int, end time.Time) model.Series {
	bars := make(model.Series, count)
	y, mo, d := end.Date()
	last := time.Date(y, mo, d, 0, 0, 0, 0, end.Location())
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   last.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// MockQuoteSource returns a fixed quote or error.
type MockQuoteSource struct {
	Quote *model.Quote
	Err   error
	Panic bool
}

func (m *MockQuoteSource) Name() string { return "mock" }

func (m *MockQuoteSource) FetchQuote(_ context.Context, _ string) (*model.Quote, error) {
	if m.Panic {
		panic("mock quote source")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Quote == nil {
		return &model.Quote{NoTrade: true}, nil
	}
	q := *m.Quote
	return &q, nil
}
