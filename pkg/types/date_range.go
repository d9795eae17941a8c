package types

import (
	"fmt"
	"strings"
	"time"
)

// DateRange is the admin list shortcut filter: today, the last 7 days, or
// the last calendar month.
type DateRange string

const (
	DateRangeAll   DateRange = ""
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
)

func ParseDateRange(value string) (DateRange, error) {
	switch r := DateRange(strings.ToLower(strings.TrimSpace(value))); r {
	case DateRangeAll, DateRangeToday, DateRangeWeek, DateRangeMonth:
		return r, nil
	default:
		return "", fmt.Errorf("invalid date range %q", value)
	}
}

// Since returns the inclusive lower bound for the range relative to now.
// ok is false when the range does not filter.
func (r DateRange) Since(now time.Time) (time.Time, bool) {
	switch r {
	case DateRangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case DateRangeWeek:
		return now.AddDate(0, 0, -7), true
	case DateRangeMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}
