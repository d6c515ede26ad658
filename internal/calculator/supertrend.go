package calculator

import (
	"errors"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"

	talib "github.com/markcheno/go-talib"
)

// Supertrend is the trailing ATR band line and its direction for each bar.
// Entries before the first valid ATR are zero and Up is false.
type Supertrend struct {
	Line []float64
	Up   []bool
}

// CalculateSupertrend computes the ATR(period) band trend line with the given multiplier.
func CalculateSupertrend(bars model.Series, period int, multiplier float64) (*Supertrend, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(bars) <= period+1 {
		return nil, errors.New("not enough data for supertrend calculation")
	}

	highs, lows, closes := bars.Highs(), bars.Lows(), bars.Closes()
	atr := talib.Atr(highs, lows, closes, period)

	n := len(bars)
	st := &Supertrend{Line: make([]float64, n), Up: make([]bool, n)}
	upper := make([]float64, n)
	lower := make([]float64, n)

	for i := period; i < n; i++ {
		hl2 := (highs[i] + lows[i]) / 2
		basicUpper := hl2 + multiplier*atr[i]
		basicLower := hl2 - multiplier*atr[i]

		if i == period {
			upper[i], lower[i] = basicUpper, basicLower
			st.Up[i] = closes[i] >= hl2
		} else {
			upper[i] = upper[i-1]
			if basicUpper < upper[i-1] || closes[i-1] > upper[i-1] {
				upper[i] = basicUpper
			}
			lower[i] = lower[i-1]
			if basicLower > lower[i-1] || closes[i-1] < lower[i-1] {
				lower[i] = basicLower
			}

			switch {
			case closes[i] > upper[i-1]:
				st.Up[i] = true
			case closes[i] < lower[i-1]:
				st.Up[i] = false
			default:
				st.Up[i] = st.Up[i-1]
			}
		}

		if st.Up[i] {
			st.Line[i] = lower[i]
		} else {
			st.Line[i] = upper[i]
		}
	}
	return st, nil
}
