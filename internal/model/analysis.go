package model

import "time"

// Analysis is the result of one fetch, reconcile and score pass for a code.
type Analysis struct {
	Code   string       `json:"code"`
	Market Market       `json:"market"`
	Series Series       `json:"series"`
	Quote  *LiveQuote   `json:"quote,omitempty"`
	Live   bool         `json:"live"`
	Result *ScoreResult `json:"result"`
	At     time.Time    `json:"at"`
}

// AnalysisSnapshot is the persisted summary of an Analysis.
type AnalysisSnapshot struct {
	Code           string      `json:"code"`
	Market         Market      `json:"market"`
	At             time.Time   `json:"at"`
	Price          float64     `json:"price"`
	Live           bool        `json:"live"`
	WeeklyProb     int         `json:"weekly_prob"`
	MonthlyProb    int         `json:"monthly_prob"`
	CompositeScore float64     `json:"composite_score"`
	RSI            float64     `json:"rsi"`
	MACD           float64     `json:"macd"`
	VolumeRatio    float64     `json:"volume_ratio"`
	Support        float64     `json:"support"`
	Pressure       float64     `json:"pressure"`
	Trend          TrendRegime `json:"trend"`
	Actions        []ActionTag `json:"actions"`
}

// Snapshot flattens the analysis for the recorder.
func (a *Analysis) Snapshot() *AnalysisSnapshot {
	snap := &AnalysisSnapshot{
		Code:   a.Code,
		Market: a.Market,
		At:     a.At,
		Live:   a.Live,
	}
	if a.Result != nil {
		r := a.Result
		snap.Price = r.Indicators.Price
		snap.WeeklyProb = r.WeeklyProb
		snap.MonthlyProb = r.MonthlyProb
		snap.CompositeScore = r.CompositeScore
		snap.RSI = r.Indicators.RSI
		snap.MACD = r.Indicators.MACD
		snap.VolumeRatio = r.Indicators.VolumeRatio
		snap.Support = r.Support
		snap.Pressure = r.Pressure
		snap.Trend = r.Trend
		snap.Actions = r.Actions
	}
	return snap
}
