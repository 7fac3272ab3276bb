package domain

import (
	"fmt"
	"time"
)

// MonthDay is a calendar position without a year, used for recurring yearly
// season windows. Month is 1-12, Day 1-31.
type MonthDay struct {
	Month int
	Day   int
}

// MonthDayOf extracts the month/day pair from a timestamp. The year is
// discarded, so Feb 29 simply becomes (2, 29) and compares like any other day.
func MonthDayOf(ts time.Time) MonthDay {
	return MonthDay{Month: int(ts.Month()), Day: ts.Day()}
}

// Valid reports whether the pair is inside calendar bounds. Day validity per
// month (e.g. Feb 30) is not checked; a window author can express dates that
// never occur and the comparison logic tolerates them.
func (md MonthDay) Valid() bool {
	return md.Month >= 1 && md.Month <= 12 && md.Day >= 1 && md.Day <= 31
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", md.Month, md.Day)
}

// SeasonWindow is a recurring yearly availability range over month/day pairs.
// When End precedes Start by month ordering the window wraps the year
// boundary (e.g. November through February).
type SeasonWindow struct {
	Start MonthDay
	End   MonthDay
}

// Contains reports whether today falls inside the window.
//
// A window whose start and end share a month with End.Day < Start.Day is NOT
// treated as wrapping (wrap requires End.Month < Start.Month), so such a
// range matches no day at all. That matches the behaviour of the system this
// replaces and is deliberately left unchanged.
func (w SeasonWindow) Contains(today MonthDay) bool {
	afterStart := today.Month > w.Start.Month ||
		(today.Month == w.Start.Month && today.Day >= w.Start.Day)
	beforeEnd := today.Month < w.End.Month ||
		(today.Month == w.End.Month && today.Day <= w.End.Day)

	if w.End.Month < w.Start.Month {
		return afterStart || beforeEnd
	}
	return afterStart && beforeEnd
}

// InSeason evaluates availability for an optional window: a nil window means
// the item is always available.
func InSeason(window *SeasonWindow, today MonthDay) bool {
	if window == nil {
		return true
	}
	return window.Contains(today)
}
