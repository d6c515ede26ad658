package strategy

import "github.com/m09352000/my-stock-dashboard-sub000/internal/model"

// rule adds weight to a base score when hit holds. Every comparison is strict.
type rule struct {
	name   string
	weight int
	hit    func(ind *model.Indicators) bool
}

var weeklyRules = []rule{
	{"價格>MA5", 15, func(ind *model.Indicators) bool { return ind.Price > ind.MA5 }},
	{"MA5>MA20", 10, func(ind *model.Indicators) bool { return ind.MA5 > ind.MA20 }},
	{"量比>1.2", 10, func(ind *model.Indicators) bool { return ind.VolumeRatio > 1.2 }},
	{"50<RSI<80", 10, func(ind *model.Indicators) bool { return ind.RSI > 50 && ind.RSI < 80 }},
	{"RSI>80", -10, func(ind *model.Indicators) bool { return ind.RSI > 80 }},
}

var monthlyRules = []rule{
	{"價格>MA20", 20, func(ind *model.Indicators) bool { return ind.Price > ind.MA20 }},
	{"MA20>MA60", 20, func(ind *model.Indicators) bool { return ind.MA20 > ind.MA60 }},
	{"MACD>訊號線", 10, func(ind *model.Indicators) bool { return ind.MACD > ind.MACDSignal }},
}

// applyRules sums the weights of the rules that fire on top of base and clamps to [lo, hi].
func applyRules(rules []rule, ind *model.Indicators, base, lo, hi int) (int, []model.FactorScore) {
	score := base
	factors := make([]model.FactorScore, len(rules))
	for i, r := range rules {
		hit := r.hit(ind)
		if hit {
			score += r.weight
		}
		factors[i] = model.FactorScore{Name: r.name, Weight: float64(r.weight), Hit: hit}
	}
	return clamp(score, lo, hi), factors
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func classifyTrend(ind *model.Indicators) model.TrendRegime {
	switch {
	case ind.Price > ind.MA5 && ind.MA5 > ind.MA20 && ind.MA20 > ind.MA60:
		return model.TrendFullBull
	case ind.Price < ind.MA5 && ind.MA5 < ind.MA20 && ind.MA20 < ind.MA60:
		return model.TrendFullBear
	case ind.Price > ind.MA20:
		return model.TrendAboveMA20
	default:
		return model.TrendBelowMA20
	}
}

func classifyVolume(ratio float64) model.VolumeRegime {
	switch {
	case ratio > 1.8:
		return model.VolumeBreakout
	case ratio < 0.6:
		return model.VolumeDryingUp
	default:
		return model.VolumeSteady
	}
}
