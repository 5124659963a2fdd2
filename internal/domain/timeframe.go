package domain

import "time"

// Timeframe is a window over which an aggregate is computed. String-backed
// so it can be stored and compared directly against the aggregates table's
// timeframe column.
type Timeframe string

const (
	TimeframeHour    Timeframe = "1h"
	TimeframeSixHour Timeframe = "6h"
	TimeframeDay     Timeframe = "1d"
	TimeframeWeek    Timeframe = "7d"
	TimeframeMonth   Timeframe = "30d"
	TimeframeAllTime Timeframe = "allTime"
)

// AllTimeframes lists every timeframe a content/hashtag/geo aggregate runs
// against. Streaks and top-users are all-time only and do not use this list.
var AllTimeframes = []Timeframe{
	TimeframeHour,
	TimeframeSixHour,
	TimeframeDay,
	TimeframeWeek,
	TimeframeMonth,
	TimeframeAllTime,
}

// Bound returns the lower bound of the window ending at now, and whether
// the timeframe is bounded at all. TimeframeAllTime returns (zero, false):
// callers must skip the WHERE clause entirely rather than compare against
// the zero time.
func (t Timeframe) Bound(now time.Time) (time.Time, bool) {
	switch t {
	case TimeframeHour:
		return now.Add(-1 * time.Hour), true
	case TimeframeSixHour:
		return now.Add(-6 * time.Hour), true
	case TimeframeDay:
		return now.Add(-24 * time.Hour), true
	case TimeframeWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case TimeframeMonth:
		return now.Add(-30 * 24 * time.Hour), true
	case TimeframeAllTime:
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
