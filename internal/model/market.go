package model

import "time"

// Market identifies which exchange family an instrument code belongs to.
type Market string

const (
	MarketTW Market = "TW"
	MarketUS Market = "US"
)

// Bar represents a single daily candlestick.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered run of bars, strictly increasing by Time.
type Series []Bar

// Closes extracts the close prices in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volumes in order.
func (s Series) Volumes() []float64 {
	vols := make([]float64, len(s))
	for i, b := range s {
		vols[i] = b.Volume
	}
	return vols
}

// Highs extracts the high prices in order.
func (s Series) Highs() []float64 {
	highs := make([]float64, len(s))
	for i, b := range s {
		highs[i] = b.High
	}
	return highs
}

// Lows extracts the low prices in order.
func (s Series) Lows() []float64 {
	lows := make([]float64, len(s))
	for i, b := range s {
		lows[i] = b.Low
	}
	return lows
}

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Clone returns a copy that can be modified without touching s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}
