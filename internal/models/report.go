package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelSummary describes a fuel group's reconstructed series
type FuelSummary struct {
	CarID          string          `json:"carId"`
	FuelCategory   string          `json:"fuelCategory"`
	Valid          bool            `json:"valid"`
	Refuelings     int             `json:"refuelings"`
	Guessed        int             `json:"guessed"`
	Distance       int             `json:"distance"`
	Volume         float64         `json:"volume"`
	Cost           decimal.Decimal `json:"cost"`
	Consumption    float64         `json:"consumption"`
	HasBaseline    bool            `json:"hasBaseline"`
	AvgConsumption float64         `json:"avgConsumption"`
	AvgDistance    float64         `json:"avgDistance"`
	AvgPrice       float64         `json:"avgPricePerUnit"`
	Timestamp      time.Time       `json:"timestamp"`
}

// CostOccurrence is the recurrence report row of one other cost
type CostOccurrence struct {
	CostID      string          `json:"costId"`
	CarID       string          `json:"carId"`
	Title       string          `json:"title"`
	Interval    string          `json:"interval"`
	Occurrences int             `json:"occurrences"`
	Lifetime    int             `json:"lifetime"`
	Total       decimal.Decimal `json:"total"`
}
