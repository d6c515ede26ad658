package calculator

import (
	"errors"
)

// NeutralRSI is reported when RSI is undefined.
const NeutralRSI = 50.0

// CalculateRSI computes RSI over the last period deltas using simple averages of
// gains and losses.
//
// A window with gains and no losses is 100. A flat window, or fewer than
// period+1 closes, is NeutralRSI.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return NeutralRSI, nil
	}

	var avgGain, avgLoss float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return NeutralRSI, nil
		}
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}
