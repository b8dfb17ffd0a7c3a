package cycle

import (
	"math"
	"time"
)

// fallbackDays is the window length when no anchor day is configured.
const fallbackDays = 30

// DailyBoundaryHour is the fixed local hour closing a "day" for the daily
// summary: the window runs from 21:00 yesterday to 21:00 today.
const DailyBoundaryHour = 21

// Window is a reporting period. Anchored windows are half-open
// [Start, End); the fallback window includes its end.
type Window struct {
	Start    time.Time
	End      time.Time
	Anchored bool
}

func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if w.Anchored {
		return t.Before(w.End)
	}
	return !t.After(w.End)
}

// CurrentWindow computes the cycle window containing now. With an anchor
// day the window starts at the most recent occurrence of that day-of-month
// and ends one month later, exclusive. Without one it is the trailing 30
// days ending at now, inclusive.
//
// Anchor days past a month's end roll forward the way time.Date
// normalizes them (Feb 31 -> Mar 3), mirroring the previous system.
func CurrentWindow(anchorDay int, anchored bool, now time.Time) Window {
	if !anchored {
		return Window{Start: now.AddDate(0, 0, -fallbackDays), End: now}
	}
	year, month, _ := now.Date()
	start := time.Date(year, month, anchorDay, 0, 0, 0, 0, now.Location())
	if now.Day() < anchorDay {
		start = time.Date(year, month-1, anchorDay, 0, 0, 0, 0, now.Location())
	}
	return Window{Start: start, End: start.AddDate(0, 1, 0), Anchored: true}
}

// DailyWindow is the fixed daily summary period ending at 21:00 local
// time today, regardless of the current hour.
func DailyWindow(now time.Time) Window {
	end := time.Date(now.Year(), now.Month(), now.Day(), DailyBoundaryHour, 0, 0, 0, now.Location())
	return Window{Start: end.AddDate(0, 0, -1), End: end}
}

// DaysUntilCycleStart reports, for display, how many days remain until
// the next cycle begins.
func DaysUntilCycleStart(anchorDay int, now time.Time) int {
	if anchorDay > now.Day() {
		return anchorDay - now.Day()
	}
	next := time.Date(now.Year(), now.Month()+1, anchorDay, 0, 0, 0, 0, now.Location())
	return int(math.Ceil(next.Sub(now).Hours() / 24))
}
