package collector

import (
	"time"

	"github.com/scmhub/calendar"

	"github.com/maxwell-lv/mootdx/logger"
)

// tradingCalendar gates fetches of current-day data on the exchange
// calendar. When the MIC is unknown to the library it degrades to a plain
// Monday-to-Friday rule.
type tradingCalendar struct {
	cal      *calendar.Calendar
	fallback bool
	loc      *time.Location
}

// newTradingCalendar resolves a MIC (ISO 10383), e.g. "xshg" for the
// Shanghai Stock Exchange.
func newTradingCalendar(mic string) *tradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		logger.GetLogger().WithComponent("collector").WithFields(logger.Fields{
			"mic": mic,
		}).Warn("unknown market calendar, falling back to weekdays")
		return &tradingCalendar{fallback: true, loc: time.UTC}
	}
	return &tradingCalendar{cal: cal, loc: cal.Loc}
}

func (tc *tradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.loc != nil {
		date = date.In(tc.loc)
	}
	if tc.fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.cal.IsBusinessDay(date)
}
