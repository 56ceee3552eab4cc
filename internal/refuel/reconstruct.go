package refuel

// Options controls Reconstruct
type Options struct {
	// AutoReconstruct enables insertion of guessed refuelings
	AutoReconstruct bool
}

// Result is the outcome of Reconstruct
type Result struct {
	// Records is the series, guessed refuelings included, in date order
	Records []Record
	// Baseline is only meaningful when HasBaseline is set
	Baseline    Baseline
	HasBaseline bool
	// Valid is false when a record broke mileage monotonicity. The series
	// is then returned without guesses.
	Valid    bool
	Inserted int
}

// MarkValidity returns a copy of records where every record whose mileage
// is lower than its predecessor's is marked Invalid.
func MarkValidity(records []Record) ([]Record, bool) {
	out := make([]Record, len(records))
	copy(out, records)

	valid := true
	for i := 1; i < len(out); i++ {
		if out[i].Mileage < out[i-1].Mileage {
			out[i].Kind = Invalid
			valid = false
		}
	}
	return out, valid
}

// Reconstruct fills gaps left by unrecorded refuelings in a single fuel
// group's series, which must be sorted by date. Guessed records already
// present in the input are discarded first, so feeding a previous result
// back in yields the same output.
func Reconstruct(records []Record, opts Options) Result {
	recorded := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.Guessed() {
			recorded = append(recorded, r)
		}
	}

	series, valid := MarkValidity(recorded)
	result := Result{Records: series, Valid: valid}
	if !valid {
		return result
	}

	cycles := ScanCycles(series)
	baseline, ok := EstimateBaseline(series, cycles)
	if !ok {
		return result
	}
	result.Baseline, result.HasBaseline = baseline, true
	if !opts.AutoReconstruct {
		return result
	}

	augmented := make([]Record, 0, len(series))
	copied := 0
	for _, c := range cycles {
		consumption, ok := c.consumption(series)
		if !ok || consumption/baseline.AvgConsumption >= lowConsumptionRatio {
			continue
		}

		missing := baseline.AvgConsumption*float64(c.Distance(series)) - c.Volume(series)
		filled := newGapFiller(baseline, series[c.Start:c.End+1], missing).run()

		augmented = append(augmented, series[copied:c.Start+1]...)
		augmented = append(augmented, filled[1:]...)
		result.Inserted += len(filled) - (c.End - c.Start + 1)
		copied = c.End + 1
	}
	if result.Inserted == 0 {
		return result
	}

	result.Records = append(augmented, series[copied:]...)
	return result
}
