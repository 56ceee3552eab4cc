package main

import (
	"fmt"
	"io"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/refuel"
)

// reportSink keeps what the processor writes so it can be printed once
type reportSink struct {
	series    [][]refuel.Record
	summaries []models.FuelSummary
	costs     []models.CostOccurrence
}

func (s *reportSink) WriteRefuelings(records []refuel.Record) error {
	s.series = append(s.series, records)
	return nil
}

func (s *reportSink) WriteFuelSummary(summary models.FuelSummary) error {
	s.summaries = append(s.summaries, summary)
	return nil
}

func (s *reportSink) WriteCostOccurrences(rows []models.CostOccurrence, _ time.Time) error {
	s.costs = rows
	return nil
}

func (s *reportSink) print(w io.Writer, windowMonths int) {
	fmt.Fprintln(w, "Fuel Summary")
	fmt.Fprintln(w, "------------")
	for i, summary := range s.summaries {
		fmt.Fprintf(w, "%s/%s: %d refuelings (%d guessed), %d distance, %.2f volume, %s cost\n",
			summary.CarID, summary.FuelCategory, summary.Refuelings, summary.Guessed,
			summary.Distance, summary.Volume, summary.Cost.StringFixed(2))
		if !summary.Valid {
			fmt.Fprintln(w, "  mileage is not monotonic, no reconstruction")
		}
		if summary.HasBaseline {
			fmt.Fprintf(w, "  baseline: %.4f per distance unit, %.1f between fills, %.3f per volume unit\n",
				summary.AvgConsumption, summary.AvgDistance, summary.AvgPrice)
		}
		for _, r := range s.series[i] {
			if r.Guessed() {
				fmt.Fprintf(w, "  guessed %s at %d: %.2f for %.2f\n",
					r.Date.Format(time.DateOnly), r.Mileage, r.Volume, r.Price)
			}
		}
	}

	fmt.Fprintf(w, "\nOther Costs (last %d months)\n", windowMonths)
	fmt.Fprintln(w, "----------------------------")
	for _, row := range s.costs {
		fmt.Fprintf(w, "%s %q every %s: %d in window (%d total), %s\n",
			row.CarID, row.Title, row.Interval, row.Occurrences, row.Lifetime, row.Total.StringFixed(2))
	}
}
