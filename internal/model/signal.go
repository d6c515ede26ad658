package model

// TrendRegime classifies the moving-average stack.
type TrendRegime string

const (
	TrendFullBull  TrendRegime = "FULL_BULL"
	TrendFullBear  TrendRegime = "FULL_BEAR"
	TrendAboveMA20 TrendRegime = "ABOVE_MA20"
	TrendBelowMA20 TrendRegime = "BELOW_MA20"
)

// VolumeRegime classifies the latest volume against its 5-day average.
type VolumeRegime string

const (
	VolumeBreakout VolumeRegime = "BREAKOUT"
	VolumeDryingUp VolumeRegime = "DRYING_UP"
	VolumeSteady   VolumeRegime = "STEADY"
)

// ActionTag is a suggested action attached to a score.
type ActionTag string

const (
	ActionBuyZone          ActionTag = "BUY_ZONE"
	ActionTakeProfit       ActionTag = "TAKE_PROFIT"
	ActionOverbought       ActionTag = "OVERBOUGHT"
	ActionOversold         ActionTag = "OVERSOLD"
	ActionMACDBullish      ActionTag = "MACD_BULLISH"
	ActionMACDBearish      ActionTag = "MACD_BEARISH"
	ActionVolumeBreakout   ActionTag = "VOLUME_BREAKOUT"
	ActionSupertrendFlipUp ActionTag = "SUPERTREND_FLIP_UP"
	ActionSupertrendFlipDn ActionTag = "SUPERTREND_FLIP_DOWN"
)

// FactorScore records one scoring rule and whether it fired.
type FactorScore struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Hit    bool    `json:"hit"`
}

// ScoreResult is the final output of the scoring engine.
type ScoreResult struct {
	WeeklyProb     int           `json:"weekly_prob"`
	MonthlyProb    int           `json:"monthly_prob"`
	CompositeScore float64       `json:"composite_score"`
	Narrative      string        `json:"narrative"`
	Support        float64       `json:"support"`
	Pressure       float64       `json:"pressure"`
	Actions        []ActionTag   `json:"actions"`
	Trend          TrendRegime   `json:"trend"`
	Volume         VolumeRegime  `json:"volume"`
	WeeklyFactors  []FactorScore `json:"weekly_factors"`
	MonthlyFactors []FactorScore `json:"monthly_factors"`
	Indicators     Indicators    `json:"indicators"`
}

// HasAction reports whether tag is among the suggested actions.
func (r *ScoreResult) HasAction(tag ActionTag) bool {
	for _, a := range r.Actions {
		if a == tag {
			return true
		}
	}
	return false
}
