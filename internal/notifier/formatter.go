package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

var marketLabel = map[model.Market]string{
	model.MarketTW: "台股",
	model.MarketUS: "美股",
}

// ScanDigest is the input to FormatScanDigest.
type ScanDigest struct {
	Market    model.Market
	At        time.Time
	PoolSize  int
	Errors    int
	MinWeekly int
	Hits      []DigestHit
}

// DigestHit is one line of a scan digest.
type DigestHit struct {
	Code           string
	Price          float64
	WeeklyProb     int
	MonthlyProb    int
	CompositeScore float64
	Actions        []model.ActionTag
}

// FormatScanDigest formats a scan run into a Telegram message.
func FormatScanDigest(d ScanDigest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📡 <b>%s掃描</b> | %s\n\n", marketLabel[d.Market], d.At.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("掃描 %d 檔 | 週機率門檻 %d%% | 命中 %d | 失敗 %d\n\n",
		d.PoolSize, d.MinWeekly, len(d.Hits), d.Errors))

	if len(d.Hits) == 0 {
		b.WriteString("本次無符合條件的標的")
		return b.String()
	}
	for i, h := range d.Hits {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %.2f | 週 %d%% 月 %d%% | 綜合 %.1f",
			i+1, html.EscapeString(h.Code), h.Price, h.WeeklyProb, h.MonthlyProb, h.CompositeScore))
		if len(h.Actions) > 0 {
			tags := make([]string, len(h.Actions))
			for j, a := range h.Actions {
				tags[j] = string(a)
			}
			b.WriteString(" | " + strings.Join(tags, ","))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAnalysis formats a single-code analysis into a Telegram message.
func FormatAnalysis(an *model.Analysis) string {
	r := an.Result
	ind := r.Indicators
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s", html.EscapeString(an.Code), an.At.Format("2006-01-02 15:04")))
	if an.Live {
		b.WriteString(" (盤中)")
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("現價: %.2f", ind.Price))
	if an.Quote != nil {
		b.WriteString(fmt.Sprintf(" (%+.2f, %+.2f%%)", an.Quote.Change, an.Quote.ChangePct))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("MA5: %.2f | MA20: %.2f | MA60: %.2f\n", ind.MA5, ind.MA20, ind.MA60))
	b.WriteString(fmt.Sprintf("RSI: %.1f | MACD: %.3f | 量比: %.2f\n", ind.RSI, ind.MACD, ind.VolumeRatio))
	b.WriteString(fmt.Sprintf("支撐: %.2f | 壓力: %.2f\n", r.Support, r.Pressure))
	b.WriteString(fmt.Sprintf("60日區間: %.2f ~ %.2f (位階 %.0f%%)\n\n", ind.Low60, ind.High60, ind.Position60*100))

	b.WriteString(fmt.Sprintf("📈 一週上漲機率 <b>%d%%</b> | 一個月 <b>%d%%</b> | 綜合 %.1f\n",
		r.WeeklyProb, r.MonthlyProb, r.CompositeScore))
	for _, f := range r.WeeklyFactors {
		if f.Hit {
			b.WriteString(fmt.Sprintf("  週 %s %+.0f\n", html.EscapeString(f.Name), f.Weight))
		}
	}
	for _, f := range r.MonthlyFactors {
		if f.Hit {
			b.WriteString(fmt.Sprintf("  月 %s %+.0f\n", html.EscapeString(f.Name), f.Weight))
		}
	}
	if len(r.Actions) > 0 {
		tags := make([]string, len(r.Actions))
		for i, a := range r.Actions {
			tags[i] = string(a)
		}
		b.WriteString(fmt.Sprintf("\n🏷 %s\n", strings.Join(tags, ", ")))
	}
	b.WriteString("\n" + html.EscapeString(r.Narrative))
	return b.String()
}
