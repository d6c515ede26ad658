// Package reconciler folds a live quote into the in-progress daily bar.
package reconciler

import (
	"fmt"
	"math"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// Usable reports whether q carries a tradable price.
func Usable(q *model.Quote) bool {
	if q == nil || q.NoTrade {
		return false
	}
	return q.Price > 0 && !math.IsInf(q.Price, 0) && !math.IsNaN(q.Price)
}

// Reconcile merges q into series. today is any instant on the market-local
// session date; its Location decides the day boundary.
//
// If the last bar is dated before today a new bar is appended with
// Open = Close = q.Price, since the quote carries no session open. Otherwise
// the last bar takes q's price as close, widens its high/low and replaces its
// volume. The input series is never modified. When q is not usable the
// original series is returned together with model.ErrQuoteUnavailable.
func Reconcile(series model.Series, q *model.Quote, today time.Time) (model.Series, *model.LiveQuote, error) {
	if len(series) == 0 {
		return series, nil, fmt.Errorf("reconcile: %w: empty series", model.ErrDataUnavailable)
	}
	if !Usable(q) {
		return series, nil, model.ErrQuoteUnavailable
	}

	loc := today.Location()
	day := market.DateOf(today, loc)
	high, low := quoteRange(q)

	out := series.Clone()
	last := &out[len(out)-1]
	if market.DateOf(last.Time, loc).Before(day) {
		out = append(out, model.Bar{
			Time:   day,
			Open:   q.Price,
			High:   high,
			Low:    low,
			Close:  q.Price,
			Volume: math.Max(q.Volume, 0),
		})
	} else {
		last.Close = q.Price
		last.High = math.Max(last.High, high)
		last.Low = math.Min(last.Low, low)
		// A missing volume field keeps the historical figure.
		if q.Volume > 0 {
			last.Volume = q.Volume
		}
	}

	return out, normalize(out, q, high, low, today), nil
}

// quoteRange returns the quote's session high/low, substituting the price for
// missing values and widening so that low <= price <= high.
func quoteRange(q *model.Quote) (high, low float64) {
	high, low = q.High, q.Low
	if !(high > 0) {
		high = q.Price
	}
	if !(low > 0) {
		low = q.Price
	}
	return math.Max(high, q.Price), math.Min(low, q.Price)
}

func normalize(out model.Series, q *model.Quote, high, low float64, today time.Time) *model.LiveQuote {
	n := len(out)
	prev := out[0].Open
	if n >= 2 {
		prev = out[n-2].Close
	}
	lq := &model.LiveQuote{
		Price:         q.Price,
		High:          high,
		Low:           low,
		Volume:        out[n-1].Volume,
		PreviousClose: prev,
		Change:        q.Price - prev,
		Time:          q.Time,
	}
	if prev != 0 {
		lq.ChangePct = lq.Change / prev * 100
	}
	if lq.Time.IsZero() {
		lq.Time = today
	}
	return lq
}
