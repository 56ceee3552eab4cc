// Package refuel reconstructs refuelings a driver forgot to record.
//
// A series of refuelings for one fuel group is split into fill cycles,
// each closed by a full fill. Cycles whose consumption is implausibly low
// compared to the group's baseline are assumed to be missing fuel, and
// synthetic partial refuelings are inserted until the cycle matches the
// baseline again.
package refuel

import (
	"fmt"
	"time"
)

// Kind is the role a record plays in a series
type Kind int

const (
	// Recorded is a user entered full fill
	Recorded Kind = iota
	// RecordedPartial is a user entered fill that did not fill the tank
	RecordedPartial
	// Guessed is a synthetic partial fill inserted by Reconstruct
	Guessed
	// Invalid is a user entered fill whose mileage is lower than its
	// predecessor's
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Recorded:
		return "recorded"
	case RecordedPartial:
		return "recorded_partial"
	case Guessed:
		return "guessed"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// GroupKey identifies a car and fuel category. Reconstruction never mixes
// groups.
type GroupKey struct {
	CarID        string
	FuelCategory string
}

func (g GroupKey) String() string {
	return g.CarID + "/" + g.FuelCategory
}

// Less orders keys by car, then category
func (g GroupKey) Less(o GroupKey) bool {
	if g.CarID != o.CarID {
		return g.CarID < o.CarID
	}
	return g.FuelCategory < o.FuelCategory
}

// Record is one refueling in a fuel group's series
type Record struct {
	ID      string
	Group   GroupKey
	Mileage int
	Date    time.Time
	Volume  float64
	Price   float64
	Kind    Kind
}

// NewRecorded builds a user entered record
func NewRecorded(id string, group GroupKey, mileage int, date time.Time, volume, price float64, partial bool) Record {
	kind := Recorded
	if partial {
		kind = RecordedPartial
	}
	return Record{
		ID:      id,
		Group:   group,
		Mileage: mileage,
		Date:    date,
		Volume:  volume,
		Price:   price,
		Kind:    kind,
	}
}

// Partial reports whether the fill left the tank below capacity
func (r Record) Partial() bool {
	return r.Kind == RecordedPartial || r.Kind == Guessed
}

// Guessed reports whether the record was synthesized
func (r Record) Guessed() bool {
	return r.Kind == Guessed
}

// Valid reports whether the record kept mileage monotonic
func (r Record) Valid() bool {
	return r.Kind != Invalid
}
