package market

import (
	"strings"
	"unicode"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
)

// Classify maps an instrument code to its market. Purely numeric codes are
// Taiwan-listed; everything else is treated as a US ticker.
func Classify(code string) model.Market {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.MarketUS
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return model.MarketUS
		}
	}
	return model.MarketTW
}

// Normalize trims and upper-cases a code as typed by a user.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// YahooSymbol returns the Yahoo Finance ticker for a code.
func YahooSymbol(code string) string {
	if Classify(code) == model.MarketTW {
		return code + ".TW"
	}
	return code
}
