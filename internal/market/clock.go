package market

import (
	"fmt"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"

	"github.com/scmhub/calendar"
)

// Clock answers trading-day questions in a market's local time zone.
type Clock struct {
	Market   model.Market
	MIC      string
	Location *time.Location
	Calendar *calendar.Calendar // nil means Mon-Fri fallback
	Holidays map[string]bool    // extra closures keyed by YYYY-MM-DD
}

var defaultMIC = map[model.Market]string{
	model.MarketTW: "xtai",
	model.MarketUS: "xnys",
}

var defaultZone = map[model.Market]string{
	model.MarketTW: "Asia/Taipei",
	model.MarketUS: "America/New_York",
}

// NewClock builds a clock for m. Empty tz or mic select the market defaults.
// An unknown MIC falls back to a Mon-Fri calendar minus the market's built-in
// holiday list; check HasCalendar to detect it.
func NewClock(m model.Market, tz, mic string) (*Clock, error) {
	if tz == "" {
		tz = defaultZone[m]
	}
	if mic == "" {
		mic = defaultMIC[m]
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", tz, err)
	}
	c := &Clock{
		Market:   m,
		MIC:      mic,
		Location: loc,
		Calendar: calendar.GetCalendar(mic),
		Holidays: make(map[string]bool),
	}
	if c.Calendar == nil {
		for _, d := range builtinHolidays[m] {
			c.Holidays[d] = true
		}
	}
	return c, nil
}

// HasCalendar reports whether an exchange calendar backs the clock.
func (c *Clock) HasCalendar() bool { return c.Calendar != nil }

// AddHolidays marks extra closure dates given as YYYY-MM-DD.
func (c *Clock) AddHolidays(dates ...string) error {
	if c.Holidays == nil {
		c.Holidays = make(map[string]bool)
	}
	for _, d := range dates {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return fmt.Errorf("holiday %q: %w", d, err)
		}
		c.Holidays[t.Format(time.DateOnly)] = true
	}
	return nil
}

// Today returns midnight of now's date in the market time zone.
func (c *Clock) Today(now time.Time) time.Time {
	return DateOf(now, c.Location)
}

// IsTradingDay reports whether t's local date is a session day.
func (c *Clock) IsTradingDay(t time.Time) bool {
	t = t.In(c.Location)
	if c.Holidays[t.Format(time.DateOnly)] {
		return false
	}
	if c.Calendar == nil {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return c.Calendar.IsBusinessDay(t)
}

// IsOpen reports whether the market is in session at t.
func (c *Clock) IsOpen(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	if c.Calendar == nil {
		t = t.In(c.Location)
		minutes := t.Hour()*60 + t.Minute()
		openAt, closeAt := sessionMinutes(c.Market)
		return minutes >= openAt && minutes < closeAt
	}
	return c.Calendar.IsOpen(t)
}

func sessionMinutes(m model.Market) (openAt, closeAt int) {
	if m == model.MarketTW {
		return 9 * 60, 13*60 + 30
	}
	return 9*60 + 30, 16 * 60
}

// DateOf truncates t to midnight of its calendar date in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Clocks holds one clock per market.
type Clocks map[model.Market]*Clock

// For returns the clock for the market of code.
func (cs Clocks) For(code string) *Clock {
	return cs[Classify(code)]
}
