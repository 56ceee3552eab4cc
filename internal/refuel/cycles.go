package refuel

// Cycle is a run of partial fills closed by a full fill. Start is the
// index of the full fill that opened the cycle and is not part of it; End
// is the closing full fill.
type Cycle struct {
	Start int
	End   int
}

// ScanCycles partitions a date ordered series into fill cycles. Records
// before the first full fill belong to no cycle.
func ScanCycles(records []Record) []Cycle {
	var cycles []Cycle
	last := -1
	for i, r := range records {
		if r.Partial() {
			continue
		}
		if last >= 0 {
			cycles = append(cycles, Cycle{Start: last, End: i})
		}
		last = i
	}
	return cycles
}

// Distance is the mileage driven between the opening and closing fill
func (c Cycle) Distance(records []Record) int {
	return records[c.End].Mileage - records[c.Start].Mileage
}

// Volume is the fuel bought inside the cycle, closing fill included
func (c Cycle) Volume(records []Record) float64 {
	var volume float64
	for _, r := range records[c.Start+1 : c.End+1] {
		volume += r.Volume
	}
	return volume
}

// HasPartials reports whether any partial fill lies inside the cycle
func (c Cycle) HasPartials() bool {
	return c.End-c.Start > 1
}

// consumption returns volume per distance unit, false for cycles that
// did not move
func (c Cycle) consumption(records []Record) (float64, bool) {
	distance := c.Distance(records)
	if distance <= 0 {
		return 0, false
	}
	return c.Volume(records) / float64(distance), true
}
