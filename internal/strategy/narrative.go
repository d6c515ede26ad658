package strategy

import (
	"fmt"
	"strings"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

type template struct {
	format string
	args   func(ind *model.Indicators) []any
}

var trendTemplates = map[model.TrendRegime]template{
	model.TrendFullBull: {
		"多頭排列：股價 %.2f 站上 5 日、20 日與 60 日均線，短中長期趨勢一致向上。",
		func(ind *model.Indicators) []any { return []any{ind.Price} },
	},
	model.TrendFullBear: {
		"空頭排列：股價 %.2f 跌破 5 日、20 日與 60 日均線，趨勢全面轉弱。",
		func(ind *model.Indicators) []any { return []any{ind.Price} },
	},
	model.TrendAboveMA20: {
		"股價 %.2f 位於月線 %.2f 之上，中期趨勢偏多。",
		func(ind *model.Indicators) []any { return []any{ind.Price, ind.MA20} },
	},
	model.TrendBelowMA20: {
		"股價 %.2f 位於月線 %.2f 之下，中期趨勢偏弱。",
		func(ind *model.Indicators) []any { return []any{ind.Price, ind.MA20} },
	},
}

var volumeTemplates = map[model.VolumeRegime]template{
	model.VolumeBreakout: {
		"成交量達五日均量的 %.1f 倍，出現爆量突破訊號。",
		func(ind *model.Indicators) []any { return []any{ind.VolumeRatio} },
	},
	model.VolumeDryingUp: {
		"成交量僅五日均量的 %.1f 倍，量能急凍。",
		func(ind *model.Indicators) []any { return []any{ind.VolumeRatio} },
	},
	model.VolumeSteady: {
		"成交量為五日均量的 %.1f 倍，量能持平。",
		func(ind *model.Indicators) []any { return []any{ind.VolumeRatio} },
	},
}

const probabilityFormat = "預估一週上漲機率 %d%%，一個月上漲機率 %d%%。"

// Narrate renders the trend and volume templates selected by r's regimes,
// followed by the probabilities. The output depends only on r.
func Narrate(r *model.ScoreResult) string {
	var b strings.Builder
	if t, ok := trendTemplates[r.Trend]; ok {
		b.WriteString(fmt.Sprintf(t.format, t.args(&r.Indicators)...))
	}
	if t, ok := volumeTemplates[r.Volume]; ok {
		b.WriteString(fmt.Sprintf(t.format, t.args(&r.Indicators)...))
	}
	b.WriteString(fmt.Sprintf(probabilityFormat, r.WeeklyProb, r.MonthlyProb))
	return b.String()
}
