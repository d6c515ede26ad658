package model

import "errors"

var (
	// ErrDataUnavailable means the historical source returned nothing usable.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrQuoteUnavailable means the realtime source had no tradable price.
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrInsufficientHistory means the series is too short to score.
	ErrInsufficientHistory = errors.New("insufficient history")
)
