package processor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/calendar"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/clock"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/recurrence"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/refuel"
)

// summarize builds the consumption summary of a reconstructed group.
// Consumption is the volume bought after the first refueling over the
// distance driven since it; an invalid series has neither.
func summarize(key refuel.GroupKey, result refuel.Result, now time.Time) models.FuelSummary {
	summary := models.FuelSummary{
		CarID:        key.CarID,
		FuelCategory: key.FuelCategory,
		Valid:        result.Valid,
		Refuelings:   len(result.Records),
		Cost:         decimal.Zero,
		Timestamp:    now,
	}

	var afterFirst float64
	for i, r := range result.Records {
		if r.Guessed() {
			summary.Guessed++
		}
		summary.Volume += r.Volume
		summary.Cost = summary.Cost.Add(decimal.NewFromFloat(r.Price))
		if i > 0 {
			afterFirst += r.Volume
		}
	}

	if n := len(result.Records); result.Valid && n > 1 {
		summary.Distance = result.Records[n-1].Mileage - result.Records[0].Mileage
		if summary.Distance > 0 {
			summary.Consumption = afterFirst / float64(summary.Distance)
		}
	}

	if result.HasBaseline {
		summary.HasBaseline = true
		summary.AvgConsumption = result.Baseline.AvgConsumption
		summary.AvgDistance = result.Baseline.AvgDistance
		summary.AvgPrice = result.Baseline.AvgPricePerUnit
	}
	return summary
}

// costReport counts every other cost over the trailing window of months
// ending at now and over its whole lifetime
func costReport(costs []models.OtherCost, now time.Time, months int) []models.CostOccurrence {
	window := recurrence.Window{Start: calendar.Add(calendar.Month, now, -months), End: now}
	counter := recurrence.NewCounter(clock.NewFixed(now))

	rows := make([]models.CostOccurrence, 0, len(costs))
	for _, cost := range costs {
		n := cost.Occurrences(now, window)
		rows = append(rows, models.CostOccurrence{
			CostID:      cost.ID,
			CarID:       cost.CarID,
			Title:       cost.Title,
			Interval:    string(cost.RecurrenceInterval),
			Occurrences: n,
			Lifetime:    cost.LifetimeOccurrences(counter),
			Total:       cost.Total(n),
		})
	}
	return rows
}
