// Package calendar counts whole calendar units between two instants.
//
// Units are calendar units, not fixed durations: a month is the step from
// a day of month to the same day of the next month, clamped to the last
// day when the target month is shorter (Jan 31 + 1 month = Feb 28).
package calendar

import (
	"fmt"
	"time"
)

// Unit is a calendar unit
type Unit int

const (
	Day Unit = iota
	Month
	Quarter
	Year
)

func (u Unit) String() string {
	switch u {
	case Day:
		return "day"
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// UnitsBetween returns the number of whole units elapsed from from to to.
// The result is negative when to is before from. Both instants are read in
// from's location.
func UnitsBetween(unit Unit, from, to time.Time) int {
	to = to.In(from.Location())
	switch unit {
	case Day:
		return daysBetween(from, to)
	case Month:
		return monthsBetween(from, to)
	case Quarter:
		return monthsBetween(from, to) / 3
	case Year:
		return monthsBetween(from, to) / 12
	default:
		return 0
	}
}

// Add moves t by n units, keeping the wall clock and clamping the day of
// month for month based units.
func Add(unit Unit, t time.Time, n int) time.Time {
	switch unit {
	case Day:
		return t.AddDate(0, 0, n)
	case Month:
		return addMonths(t, n)
	case Quarter:
		return addMonths(t, 3*n)
	case Year:
		return addMonths(t, 12*n)
	default:
		return t
	}
}

const secondsPerDay = 24 * 60 * 60

func daysBetween(from, to time.Time) int {
	d1 := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	d2 := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int((d2.Unix() - d1.Unix()) / secondsPerDay)

	// a partial day at either end does not count
	if days > 0 && from.AddDate(0, 0, days).After(to) {
		days--
	} else if days < 0 && from.AddDate(0, 0, days).Before(to) {
		days++
	}
	return days
}

func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())

	if months > 0 && addMonths(from, months).After(to) {
		months--
	} else if months < 0 && addMonths(from, months).Before(to) {
		months++
	}
	return months
}

func addMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)

	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
