package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/refuel"
)

// ErrInvalidEvent is returned for events that cannot enter the ledger
var ErrInvalidEvent = errors.New("invalid event")

// EventType tells which payload an Event carries
type EventType string

const (
	EventRefueling EventType = "refueling"
	EventOtherCost EventType = "other_cost"
)

// Event is a single message on the vehicle cost topic
type Event struct {
	Type      EventType  `json:"type"`
	Refueling *Refueling `json:"refueling,omitempty"`
	OtherCost *OtherCost `json:"otherCost,omitempty"`
}

// Refueling is a user entered fuel purchase
type Refueling struct {
	ID           string    `json:"id"`
	CarID        string    `json:"carId"`
	FuelCategory string    `json:"fuelCategory"`
	Mileage      int       `json:"mileage"`
	Date         time.Time `json:"date"`
	Volume       float64   `json:"volume"`
	Price        float64   `json:"price"`
	Partial      bool      `json:"partial"`
}

// Validate checks that the event carries the payload its type names
func (e Event) Validate() error {
	switch e.Type {
	case EventRefueling:
		if e.Refueling == nil {
			return fmt.Errorf("%w: refueling payload missing", ErrInvalidEvent)
		}
		return e.Refueling.Validate()
	case EventOtherCost:
		if e.OtherCost == nil {
			return fmt.Errorf("%w: other cost payload missing", ErrInvalidEvent)
		}
		return e.OtherCost.Validate()
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidEvent, e.Type)
	}
}

// Validate checks the fields reconstruction relies on
func (r Refueling) Validate() error {
	if strings.TrimSpace(r.CarID) == "" {
		return fmt.Errorf("%w: car id is required", ErrInvalidEvent)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEvent)
	}
	if r.Volume <= 0 || r.Price < 0 {
		return fmt.Errorf("%w: volume must be positive and price not negative", ErrInvalidEvent)
	}
	return nil
}

// Group returns the fuel group the refueling belongs to
func (r Refueling) Group() refuel.GroupKey {
	category := strings.ToLower(strings.TrimSpace(r.FuelCategory))
	if category == "" {
		category = "default"
	}
	return refuel.GroupKey{CarID: strings.TrimSpace(r.CarID), FuelCategory: category}
}

// Record converts the refueling for the reconstruction engine. Refuelings
// without an id get one derived from their content so redelivered
// messages collapse onto the same record.
func (r Refueling) Record() refuel.Record {
	group := r.Group()
	id := strings.TrimSpace(r.ID)
	if id == "" {
		name := fmt.Sprintf("%s|%d|%d", group, r.Mileage, r.Date.UnixNano())
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
	}
	return refuel.NewRecorded(id, group, r.Mileage, r.Date.UTC(), r.Volume, r.Price, r.Partial)
}
