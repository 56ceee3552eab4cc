// Package recurrence counts how many times a periodically recurring cost
// occurs, using calendar unit arithmetic.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/calendar"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/clock"
)

// Interval is the unit a cost recurs in
type Interval string

const (
	Once    Interval = "once"
	Day     Interval = "day"
	Month   Interval = "month"
	Quarter Interval = "quarter"
	Year    Interval = "year"
)

// ParseInterval normalizes a textual interval
func ParseInterval(raw string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(raw))); i {
	case Once, Day, Month, Quarter, Year:
		return i, nil
	default:
		return "", fmt.Errorf("unsupported recurrence interval %q", raw)
	}
}

func (i Interval) unit() calendar.Unit {
	switch i {
	case Month:
		return calendar.Month
	case Quarter:
		return calendar.Quarter
	case Year:
		return calendar.Year
	default:
		return calendar.Day
	}
}

// Window is an inclusive reporting window
type Window struct {
	Start time.Time
	End   time.Time
}

// Counter counts occurrences relative to its clock
type Counter struct {
	clock clock.Clock
}

// NewCounter returns a Counter reading "now" from c
func NewCounter(c clock.Clock) *Counter {
	if c == nil {
		c = clock.Real{}
	}
	return &Counter{clock: c}
}

// OccurrencesSince counts occurrences from start through now, the
// occurrence at start included. It is zero when start lies in the future.
func (c *Counter) OccurrencesSince(interval Interval, multiplier int, start time.Time) int {
	if interval == Once {
		return 1
	}
	return max(0, 1+floorDiv(calendar.UnitsBetween(interval.unit(), start, c.clock.Now()), normalize(multiplier)))
}

// OccurrencesBetween counts occurrences of the rule starting at start and
// ending at end. When a window is given only occurrences inside
// [window.Start, window.End] are counted; the window defaults to
// [start, end].
func (c *Counter) OccurrencesBetween(interval Interval, multiplier int, start, end time.Time, window ...Window) int {
	return OccurrencesBetween(interval, multiplier, start, end, window...)
}

// OccurrencesBetween is the clock free form of Counter.OccurrencesBetween.
func OccurrencesBetween(interval Interval, multiplier int, start, end time.Time, window ...Window) int {
	if end.Before(start) {
		return 0
	}

	from, to := start, end
	if len(window) > 0 {
		if window[0].Start.After(from) {
			from = window[0].Start
		}
		if window[0].End.Before(to) {
			to = window[0].End
		}
	}
	if to.Before(from) {
		return 0
	}

	if interval == Once {
		if from.Equal(start) {
			return 1
		}
		return 0
	}

	unit := interval.unit()
	step := normalize(multiplier)

	// occurrences at or before to, minus those strictly before from
	count := 1 + floorDiv(calendar.UnitsBetween(unit, start, to), step)
	if from.After(start) {
		k := floorDiv(calendar.UnitsBetween(unit, start, from), step)
		count -= 1 + k
		if calendar.Add(unit, start, k*step).Equal(from) {
			count++
		}
	}
	return max(0, count)
}

func normalize(multiplier int) int {
	if multiplier < 1 {
		return 1
	}
	return multiplier
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
