package strategy

import (
	"fmt"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/calculator"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// MinBars is the shortest series Evaluate will score.
const MinBars = 30

const (
	weeklyBase, weeklyMin, weeklyMax    = 50, 10, 98
	monthlyBase, monthlyMin, monthlyMax = 50, 10, 95

	supertrendPeriod     = 10
	supertrendMultiplier = 3.0
)

// Evaluate computes indicators, weekly/monthly probabilities, the composite
// score, the narrative and the suggested actions for the last bar of series.
func Evaluate(series model.Series) (*model.ScoreResult, error) {
	if len(series) < MinBars {
		return nil, fmt.Errorf("%w: have %d bars, need %d", model.ErrInsufficientHistory, len(series), MinBars)
	}

	ind, st, err := computeIndicators(series)
	if err != nil {
		return nil, err
	}

	weekly, weeklyFactors := applyRules(weeklyRules, &ind, weeklyBase, weeklyMin, weeklyMax)
	monthly, monthlyFactors := applyRules(monthlyRules, &ind, monthlyBase, monthlyMin, monthlyMax)

	result := &model.ScoreResult{
		WeeklyProb:     weekly,
		MonthlyProb:    monthly,
		CompositeScore: float64(weekly+monthly) / 2,
		Support:        ind.MA20 - 2*ind.Sigma20,
		Pressure:       ind.MA20 + 2*ind.Sigma20,
		Trend:          classifyTrend(&ind),
		Volume:         classifyVolume(ind.VolumeRatio),
		WeeklyFactors:  weeklyFactors,
		MonthlyFactors: monthlyFactors,
		Indicators:     ind,
	}
	result.Actions = suggestActions(result, st)
	result.Narrative = Narrate(result)
	return result, nil
}

func computeIndicators(series model.Series) (model.Indicators, *calculator.Supertrend, error) {
	closes := series.Closes()
	last := series[len(series)-1]
	ind := model.Indicators{Price: last.Close}

	var err error
	if ind.MA5, err = calculator.CalculateSMA(closes, 5); err != nil {
		return ind, nil, fmt.Errorf("ma5: %w", err)
	}
	if ind.MA20, err = calculator.CalculateSMA(closes, 20); err != nil {
		return ind, nil, fmt.Errorf("ma20: %w", err)
	}
	// MA60 falls back to all available closes when the series is shorter than 60 bars.
	if ind.MA60, err = calculator.CalculateSMA(closes, min(60, len(closes))); err != nil {
		return ind, nil, fmt.Errorf("ma60: %w", err)
	}

	macd, err := calculator.CalculateMACD(closes)
	if err != nil {
		return ind, nil, fmt.Errorf("macd: %w", err)
	}
	ind.EMA12, ind.EMA26 = macd.EMA12, macd.EMA26
	ind.MACD, ind.MACDSignal = macd.MACD, macd.Signal

	if ind.RSI, err = calculator.CalculateRSI(closes, 14); err != nil {
		return ind, nil, fmt.Errorf("rsi: %w", err)
	}

	bands, err := calculator.CalculateBands(closes, 20, 2)
	if err != nil {
		return ind, nil, fmt.Errorf("bands: %w", err)
	}
	ind.Sigma20 = bands.Sigma

	ind.VolumeRatio = calculator.CalculateVolumeRatio(series.Volumes(), 5)

	if ind.High60, ind.Low60, err = calculator.CalculateRange(series, 60); err != nil {
		return ind, nil, fmt.Errorf("range: %w", err)
	}
	if ind.Position60, err = calculator.CalculatePosition(ind.Price, ind.High60, ind.Low60); err != nil {
		return ind, nil, fmt.Errorf("position: %w", err)
	}

	st, err := calculator.CalculateSupertrend(series, supertrendPeriod, supertrendMultiplier)
	if err == nil {
		n := len(series) - 1
		ind.Supertrend = st.Line[n]
		ind.SupertrendUp = st.Up[n]
	}
	return ind, st, nil
}

func suggestActions(r *model.ScoreResult, st *calculator.Supertrend) []model.ActionTag {
	ind := r.Indicators
	var tags []model.ActionTag
	if ind.Price < r.Support {
		tags = append(tags, model.ActionBuyZone)
	}
	if ind.Price > r.Pressure {
		tags = append(tags, model.ActionTakeProfit)
	}
	if ind.RSI > 80 {
		tags = append(tags, model.ActionOverbought)
	}
	if ind.RSI < 20 {
		tags = append(tags, model.ActionOversold)
	}
	switch {
	case ind.MACD > ind.MACDSignal:
		tags = append(tags, model.ActionMACDBullish)
	case ind.MACD < ind.MACDSignal:
		tags = append(tags, model.ActionMACDBearish)
	}
	if r.Volume == model.VolumeBreakout {
		tags = append(tags, model.ActionVolumeBreakout)
	}
	if st != nil {
		n := len(st.Up) - 1
		switch {
		case st.Up[n] && !st.Up[n-1]:
			tags = append(tags, model.ActionSupertrendFlipUp)
		case !st.Up[n] && st.Up[n-1]:
			tags = append(tags, model.ActionSupertrendFlipDn)
		}
	}
	return tags
}
