package refuel

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// volumes below this are treated as fully accounted for
const volumeEpsilon = 1e-6

type phase int

const (
	// walking the partial fills inside the cycle
	phaseInterior phase = iota
	// placing what is still missing before the closing fill
	phaseClosing
	phaseDone
)

// gapFiller repairs a single cycle that is missing fuel. buf starts as the
// opening full fill, the cycle's partial fills and its closing full fill;
// guessed fills are spliced into it in place.
type gapFiller struct {
	baseline Baseline
	buf      []Record

	// cursor is the record under examination, anchor the last record
	// after which the tank is known to be full
	cursor int
	anchor int

	// carried is the volume bought in (anchor, cursor)
	carried float64
	// possible is the distance the car could still cover from buf[cursor-1]
	possible float64
	missing  float64

	phase   phase
	guesses int
}

func newGapFiller(b Baseline, cycle []Record, missing float64) *gapFiller {
	f := &gapFiller{
		baseline: b,
		buf:      slices.Clone(cycle),
		cursor:   1,
		possible: b.AvgDistance,
		missing:  missing,
	}
	f.phase = phaseInterior
	if f.cursor == len(f.buf)-1 {
		f.phase = phaseClosing
	}
	return f
}

func (f *gapFiller) run() []Record {
	for f.phase != phaseDone {
		f.step()
	}
	return f.buf
}

func (f *gapFiller) step() {
	if f.missing <= volumeEpsilon {
		f.phase = phaseDone
		return
	}
	switch f.phase {
	case phaseInterior:
		f.stepInterior()
	case phaseClosing:
		volume := min(f.baseline.TankVolume(), f.missing)
		if !f.insert(volume) && !f.insertEarlier(volume) {
			f.phase = phaseDone
		}
	}
}

// stepInterior checks whether the car could have reached the partial fill
// at cursor. If not, a guess is placed before it and the same partial fill
// is examined again against the guess.
func (f *gapFiller) stepInterior() {
	c := f.baseline.AvgConsumption
	prev, partial := f.buf[f.cursor-1], f.buf[f.cursor]
	distance := float64(partial.Mileage - prev.Mileage)

	if distance > f.possible {
		volume := min(f.baseline.TankVolume(), distance*c-partial.Volume, f.missing)
		if volume > volumeEpsilon && f.insert(volume) {
			return
		}
	}

	f.possible += partial.Volume/c - distance
	f.carried += partial.Volume
	f.cursor++
	if f.cursor == len(f.buf)-1 {
		f.phase = phaseClosing
	}
}

// insert places a guessed fill of volume right before cursor. It reports
// false when no mileage strictly between the neighbours is left.
func (f *gapFiller) insert(volume float64) bool {
	prev, next := f.buf[f.cursor-1], f.buf[f.cursor]
	mileage, ok := f.placement(volume, prev, next)
	if !ok {
		return false
	}

	anchor := f.buf[f.anchor]
	guess := Record{
		ID:      guessID(anchor.Group, next.ID, f.guesses),
		Group:   anchor.Group,
		Mileage: mileage,
		Date:    interpolateDate(prev, next, mileage),
		Volume:  volume,
		Price:   volume * f.baseline.AvgPricePerUnit,
		Kind:    Guessed,
	}
	f.buf = slices.Insert(f.buf, f.cursor, guess)
	f.guesses++

	f.missing -= volume
	f.anchor = f.cursor
	f.carried = 0
	f.possible = f.baseline.AvgDistance
	f.cursor++
	return true
}

// insertEarlier places a guessed fill of volume in the middle of the last
// gap before cursor that still has room, for when the closing fill sits
// too close to its predecessor.
func (f *gapFiller) insertEarlier(volume float64) bool {
	for j := f.cursor - 1; j >= 1; j-- {
		prev, next := f.buf[j-1], f.buf[j]
		if next.Mileage-prev.Mileage < 2 {
			continue
		}
		mileage := prev.Mileage + (next.Mileage-prev.Mileage)/2
		guess := Record{
			ID:      guessID(prev.Group, next.ID, f.guesses),
			Group:   prev.Group,
			Mileage: mileage,
			Date:    interpolateDate(prev, next, mileage),
			Volume:  volume,
			Price:   volume * f.baseline.AvgPricePerUnit,
			Kind:    Guessed,
		}
		f.buf = slices.Insert(f.buf, j, guess)
		f.guesses++
		f.missing -= volume
		if f.anchor >= j {
			f.anchor++
		}
		f.cursor++
		return true
	}
	return false
}

// placement puts the guess where the fuel bought since the anchor plus the
// guess itself would have been burned. Mileage stays strictly between prev
// and next.
func (f *gapFiller) placement(volume float64, prev, next Record) (int, bool) {
	c := f.baseline.AvgConsumption
	mileage := f.buf[f.anchor].Mileage + int(math.Round((f.carried+volume)/c))
	if mileage <= prev.Mileage {
		mileage = prev.Mileage + int(math.Round(f.possible+prev.Volume/c))
	}
	if mileage <= prev.Mileage || mileage >= next.Mileage {
		mileage = prev.Mileage + (next.Mileage-prev.Mileage)/2
	}
	if mileage <= prev.Mileage || mileage >= next.Mileage {
		return 0, false
	}
	return mileage, true
}

func interpolateDate(prev, next Record, mileage int) time.Time {
	span := next.Mileage - prev.Mileage
	if span <= 0 {
		return prev.Date
	}
	share := float64(mileage-prev.Mileage) / float64(span)
	return prev.Date.Add(time.Duration(float64(next.Date.Sub(prev.Date)) * share))
}

// guessID is stable across runs over the same input
func guessID(group GroupKey, beforeID string, n int) string {
	name := fmt.Sprintf("%s|%s|%d", group, beforeID, n)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
