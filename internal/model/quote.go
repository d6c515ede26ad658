package model

import "time"

// Quote is a provider-neutral realtime snapshot as returned by a quote source.
// NoTrade marks the "no trade yet" state some providers report before the
// first match of the session.
type Quote struct {
	Price   float64
	High    float64
	Low     float64
	Volume  float64 // accumulated session volume, in shares
	NoTrade bool
	Time    time.Time
}

// LiveQuote is the normalized quote record returned after reconciliation.
type LiveQuote struct {
	Price         float64   `json:"price"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        float64   `json:"volume"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Time          time.Time `json:"time"`
}
