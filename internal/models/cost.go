package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/recurrence"
)

// ErrInvalidRecurrence is returned for other costs with a recurrence rule
// that cannot be counted
var ErrInvalidRecurrence = errors.New("invalid recurrence")

// OtherCost is a non fuel cost such as insurance or tax. A negative price
// is income.
type OtherCost struct {
	ID                   string              `json:"id"`
	CarID                string              `json:"carId"`
	Title                string              `json:"title"`
	Date                 time.Time           `json:"date"`
	EndDate              *time.Time          `json:"endDate,omitempty"`
	Price                float64             `json:"price"`
	RecurrenceInterval   recurrence.Interval `json:"recurrenceInterval"`
	RecurrenceMultiplier int                 `json:"recurrenceMultiplier"`
}

// OtherCostInput holds the user supplied fields of an other cost
type OtherCostInput struct {
	ID         string
	CarID      string
	Title      string
	Date       time.Time
	EndDate    *time.Time
	Price      float64
	Interval   string
	Multiplier int
}

// NewOtherCost validates input and normalizes it into an OtherCost
func NewOtherCost(input OtherCostInput) (OtherCost, error) {
	interval, err := recurrence.ParseInterval(input.Interval)
	if err != nil {
		return OtherCost{}, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}

	cost := OtherCost{
		ID:                   strings.TrimSpace(input.ID),
		CarID:                strings.TrimSpace(input.CarID),
		Title:                strings.TrimSpace(input.Title),
		Date:                 input.Date.UTC(),
		Price:                input.Price,
		RecurrenceInterval:   interval,
		RecurrenceMultiplier: input.Multiplier,
	}
	if input.EndDate != nil {
		end := input.EndDate.UTC()
		cost.EndDate = &end
	}
	if err := cost.Validate(); err != nil {
		return OtherCost{}, err
	}
	return cost, nil
}

// Validate rejects rules the recurrence counter cannot represent
func (c OtherCost) Validate() error {
	if c.ID == "" || c.CarID == "" {
		return fmt.Errorf("%w: id and car id are required", ErrInvalidEvent)
	}
	if c.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEvent)
	}
	if _, err := recurrence.ParseInterval(string(c.RecurrenceInterval)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	if c.RecurrenceMultiplier < 1 {
		return fmt.Errorf("%w: multiplier must be at least 1, got %d", ErrInvalidRecurrence, c.RecurrenceMultiplier)
	}
	if c.EndDate != nil && c.EndDate.Before(c.Date) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidRecurrence)
	}
	return nil
}

// Occurrences counts how often the cost occurred inside window. A cost
// without an end date is still recurring at now.
func (c OtherCost) Occurrences(now time.Time, window recurrence.Window) int {
	end := now
	if c.EndDate != nil {
		end = *c.EndDate
	}
	return recurrence.OccurrencesBetween(c.RecurrenceInterval, c.RecurrenceMultiplier, c.Date, end, window)
}

// LifetimeOccurrences counts every occurrence from the start date up to
// the end date, or up to the counter's now while the cost still recurs.
func (c OtherCost) LifetimeOccurrences(counter *recurrence.Counter) int {
	if c.EndDate == nil {
		return counter.OccurrencesSince(c.RecurrenceInterval, c.RecurrenceMultiplier, c.Date)
	}
	return counter.OccurrencesBetween(c.RecurrenceInterval, c.RecurrenceMultiplier, c.Date, *c.EndDate)
}

// Total is price times occurrences, kept exact
func (c OtherCost) Total(occurrences int) decimal.Decimal {
	return decimal.NewFromFloat(c.Price).Mul(decimal.NewFromInt(int64(occurrences)))
}
