package model

// Indicators holds all computed technical indicators for the last bar of a series.
type Indicators struct {
	Price       float64 `json:"price"`
	MA5         float64 `json:"ma5"`
	MA20        float64 `json:"ma20"`
	MA60        float64 `json:"ma60"`
	EMA12       float64 `json:"ema12"`
	EMA26       float64 `json:"ema26"`
	MACD        float64 `json:"macd"`
	MACDSignal  float64 `json:"macd_signal"`
	RSI         float64 `json:"rsi"`
	Sigma20     float64 `json:"sigma20"`
	VolumeRatio float64 `json:"volume_ratio"`
	High60      float64 `json:"high60"`
	Low60       float64 `json:"low60"`
	Position60  float64 `json:"position60"` // 0 at Low60, 1 at High60

	Supertrend   float64 `json:"supertrend"`
	SupertrendUp bool    `json:"supertrend_up"`
}
