package calculator

import (
	"errors"
	"math"
)

// CalculateStdDev returns the sample standard deviation (n-1) of the last period prices.
func CalculateStdDev(prices []float64, period int) (float64, error) {
	if period < 2 {
		return 0, errors.New("period must be at least 2")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for stddev calculation")
	}
	mean, err := CalculateSMA(prices, period)
	if err != nil {
		return 0, err
	}
	var ss float64
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(period-1)), nil
}

// Bands are MA +/- k standard deviations.
type Bands struct {
	Middle float64
	Sigma  float64
	Upper  float64
	Lower  float64
}

// CalculateBands computes the period-bar moving average and the bands k sigma away from it.
func CalculateBands(prices []float64, period int, k float64) (Bands, error) {
	mid, err := CalculateSMA(prices, period)
	if err != nil {
		return Bands{}, err
	}
	sigma, err := CalculateStdDev(prices, period)
	if err != nil {
		return Bands{}, err
	}
	return Bands{
		Middle: mid,
		Sigma:  sigma,
		Upper:  mid + k*sigma,
		Lower:  mid - k*sigma,
	}, nil
}
