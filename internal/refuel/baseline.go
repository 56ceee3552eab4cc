package refuel

import (
	"sort"
)

const (
	// cycles below this share of the average consumption are missing fuel
	lowConsumptionRatio = 0.8

	// share of the longest cycle distances ignored for the tank range
	distanceOutlierShare = 0.2

	minDistanceRatio = 0.8
	maxDistanceRatio = 1.2
)

// Baseline holds the robust statistics of one fuel group
type Baseline struct {
	// AvgConsumption is volume per distance unit
	AvgConsumption float64
	// AvgDistance is the typical range of a full tank
	AvgDistance float64
	// AvgPricePerUnit is the mean price per volume unit
	AvgPricePerUnit float64
}

// TankVolume is the volume burned over one average tank range
func (b Baseline) TankVolume() float64 {
	return b.AvgDistance * b.AvgConsumption
}

// EstimateBaseline computes the baseline of a series. ok is false when no
// cycle covers a positive distance.
func EstimateBaseline(records []Record, cycles []Cycle) (Baseline, bool) {
	consumption, ok := averageConsumption(records, cycles)
	if !ok {
		return Baseline{}, false
	}
	distance, ok := averageDistance(records, cycles)
	if !ok {
		return Baseline{}, false
	}
	return Baseline{
		AvgConsumption:  consumption,
		AvgDistance:     distance,
		AvgPricePerUnit: averagePricePerUnit(records),
	}, true
}

// averageConsumption is total volume over total distance, recomputed
// without abnormally efficient cycles until none is left.
func averageConsumption(records []Record, cycles []Cycle) (float64, bool) {
	kept := make([]Cycle, 0, len(cycles))
	for _, c := range cycles {
		if c.Distance(records) > 0 {
			kept = append(kept, c)
		}
	}

	for {
		var distance, volume float64
		for _, c := range kept {
			distance += float64(c.Distance(records))
			volume += c.Volume(records)
		}
		if distance <= 0 || volume <= 0 {
			return 0, false
		}
		avg := volume / distance

		next := kept[:0:0]
		for _, c := range kept {
			consumption, _ := c.consumption(records)
			if consumption/avg >= lowConsumptionRatio {
				next = append(next, c)
			}
		}
		if len(next) == len(kept) {
			return avg, true
		}
		kept = next
	}
}

// averageDistance estimates the tank range from full to full cycles. The
// longest fifth is dropped first, then values far from the mean until the
// mean settles.
func averageDistance(records []Record, cycles []Cycle) (float64, bool) {
	var distances, fallback []float64
	for _, c := range cycles {
		d := c.Distance(records)
		if d <= 0 {
			continue
		}
		fallback = append(fallback, float64(d))
		if !c.HasPartials() {
			distances = append(distances, float64(d))
		}
	}
	if len(distances) == 0 {
		distances = fallback
	}
	if len(distances) == 0 {
		return 0, false
	}

	sort.Float64s(distances)
	keep := max(1, int(float64(len(distances))*(1-distanceOutlierShare)))
	distances = distances[:keep]

	avg := mean(distances)
	for {
		next := distances[:0:0]
		for _, d := range distances {
			if ratio := d / avg; ratio >= minDistanceRatio && ratio <= maxDistanceRatio {
				next = append(next, d)
			}
		}
		if len(next) == len(distances) || len(next) == 0 {
			return avg, true
		}
		distances = next
		avg = mean(distances)
	}
}

func averagePricePerUnit(records []Record) float64 {
	var sum float64
	var n int
	for _, r := range records {
		if r.Volume <= 0 {
			continue
		}
		sum += r.Price / r.Volume
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
