package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/clock"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/config"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/processor"
)

const eventsJSON = `[
  {"type":"refueling","refueling":{"id":"a","carId":"car-1","fuelCategory":"diesel","mileage":1000,"date":"2024-01-01T08:00:00Z","volume":40,"price":60}},
  {"type":"refueling","refueling":{"id":"b","carId":"car-1","fuelCategory":"diesel","mileage":1050,"date":"2024-01-08T08:00:00Z","volume":9,"price":13.5}},
  {"type":"refueling","refueling":{"id":"c","carId":"car-1","fuelCategory":"diesel","mileage":1300,"date":"2024-01-15T08:00:00Z","volume":20,"price":30}},
  {"type":"refueling","refueling":{"id":"d","carId":"car-1","fuelCategory":"diesel","mileage":1350,"date":"2024-01-22T08:00:00Z","volume":9,"price":13.5}},
  {"type":"other_cost","otherCost":{"id":"ins","carId":"car-1","title":"Insurance","date":"2023-03-01T00:00:00Z","price":49.99,"recurrenceInterval":"month","recurrenceMultiplier":1}}
]`

func TestReportFromEventsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(eventsJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	events, err := loadEvents(path)
	if err != nil {
		t.Fatalf("loadEvents() error = %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("loaded %d events, want 5", len(events))
	}

	sink := &reportSink{}
	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	proc := processor.NewProcessor(sink, config.ProcessorConfig{
		WorkerCount:      1,
		QueueSize:        1,
		AutoReconstruct:  true,
		CostWindowMonths: 2,
	}, clock.NewFixed(now))
	defer proc.Stop()

	if err := proc.Process(events); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	var out bytes.Buffer
	sink.print(&out, 2)
	report := out.String()

	for _, want := range []string{
		"car-1/diesel: 7 refuelings (3 guessed), 350 distance",
		"guessed 2024-01-09 at 1100",
		`car-1 "Insurance" every month: 2 in window (13 total), 99.98`,
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestLoadEventsRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(`{"type":"refueling"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadEvents(path); err == nil {
		t.Error("expected error for a non-array file")
	}
	if _, err := loadEvents(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}
