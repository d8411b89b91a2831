package quotes

import (
	"math"
	"time"

	"github.com/maxwell-lv/mootdx/models"
)

// Calendar-day to trading-bar discount divisors. The daily bar count between
// two dates is unknown before fetching, so the bar interval is estimated from
// calendar distance with non-trading days (roughly a third of the year)
// subtracted. The end-side divisor discounts more aggressively than the
// start-side one so the window always covers the requested range.
const (
	endDiscount   = 2.8
	startDiscount = 3.5
)

const barsPerPage = maxOffset

var dateLayouts = []string{"2006-01-02", "20060102"}

func parseRangeDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, models.Validationf("invalid date %q, expected YYYY-MM-DD or YYYYMMDD", value)
}

// daysSince returns the count of whole calendar days from t to now, clamped
// at zero for future dates.
func daysSince(now, t time.Time) int {
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// K fetches daily K-line bars for the closed-open date range [begin, end).
// Dates are accepted as YYYY-MM-DD or YYYYMMDD. The server only pages
// backwards from the present in windows of 800 bars, so the range is mapped
// to an estimated bar interval, fetched page by page, then filtered and
// sorted ascending by date.
func (q *StdQuotes) K(symbol, begin, end string) (*models.Table, error) {
	beginDay, err := parseRangeDate(begin)
	if err != nil {
		return nil, err
	}
	endDay, err := parseRangeDate(end)
	if err != nil {
		return nil, err
	}

	now := q.now()
	first := daysSince(now, endDay)
	first -= int(float64(first) / endDiscount)
	last := daysSince(now, beginDay)
	last -= int(float64(last) / startDiscount)

	_, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}

	pages := int(math.Ceil(float64(last-first) / barsPerPage))
	if pages <= 0 {
		return models.NewTable(nil), nil
	}

	fetched := make([]*models.Table, 0, pages)
	for i := 0; i < pages; i++ {
		page, err := q.Bars(symbol, FreqDaily, first+i*barsPerPage, barsPerPage)
		if err != nil {
			return nil, err
		}
		fetched = append(fetched, page)
	}

	beginStr := beginDay.Format("2006-01-02")
	endStr := endDay.Format("2006-01-02")

	t := models.Concat(fetched...).
		Map(func(r models.Record) models.Record {
			datetime := r.String("datetime")
			if len(datetime) >= 10 {
				r = r.With("date", datetime[:10])
			}
			return r.With("code", code).
				Drop("year", "month", "day", "hour", "minute", "datetime")
		}).
		Filter(func(r models.Record) bool {
			date := r.String("date")
			return date >= beginStr && date < endStr
		}).
		SortByString("date")
	t.Symbol = code
	return t, nil
}
