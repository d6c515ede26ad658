package calculator

import (
	"errors"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMASeries returns the exponential moving average for every point of prices.
// The first value seeds the average and alpha is 2/(span+1), so a constant input
// yields a constant output.
func CalculateEMASeries(prices []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	if len(prices) == 0 {
		return nil, errors.New("no prices provided")
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(prices))
	ema := prices[0]
	out[0] = ema
	for i := 1; i < len(prices); i++ {
		ema += alpha * (prices[i] - ema)
		out[i] = ema
	}
	return out, nil
}

// MACD holds the last values of the 12/26/9 MACD.
type MACD struct {
	EMA12  float64
	EMA26  float64
	MACD   float64
	Signal float64
}

// CalculateMACD computes EMA12, EMA26, MACD = EMA12 - EMA26 and the EMA9 signal line.
func CalculateMACD(closes []float64) (MACD, error) {
	ema12, err := CalculateEMASeries(closes, 12)
	if err != nil {
		return MACD{}, err
	}
	ema26, err := CalculateEMASeries(closes, 26)
	if err != nil {
		return MACD{}, err
	}
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = ema12[i] - ema26[i]
	}
	signal, err := CalculateEMASeries(line, 9)
	if err != nil {
		return MACD{}, err
	}
	n := len(closes) - 1
	return MACD{
		EMA12:  ema12[n],
		EMA26:  ema26[n],
		MACD:   line[n],
		Signal: signal[n],
	}, nil
}
