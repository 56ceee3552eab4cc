package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/clock"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/config"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/processor"
)

// stringArray collects a repeatable flag
type stringArray []string

func (s *stringArray) String() string {
	return strings.Join(*s, ",")
}

func (s *stringArray) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	var files stringArray
	flag.Var(&files, "events", "JSON file holding an array of events (can be used multiple times)")
	noAuto := flag.Bool("no-auto", false, "Disable insertion of guessed refuelings")
	windowMonths := flag.Int("window-months", 12, "Trailing months other costs are reported over")
	nowFlag := flag.String("now", "", "Report time as RFC 3339, defaults to the current time")
	flag.Parse()

	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *windowMonths < 1 {
		log.Fatalf("-window-months must be positive, got %d", *windowMonths)
	}

	var clk clock.Clock = clock.Real{}
	if *nowFlag != "" {
		now, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			log.Fatalf("Invalid -now: %v", err)
		}
		clk = clock.NewFixed(now)
	}

	var events []models.Event
	for _, path := range files {
		loaded, err := loadEvents(path)
		if err != nil {
			log.Fatal(err)
		}
		events = append(events, loaded...)
	}

	sink := &reportSink{}
	proc := processor.NewProcessor(sink, config.ProcessorConfig{
		WorkerCount:      1,
		QueueSize:        1,
		AutoReconstruct:  !*noAuto,
		CostWindowMonths: *windowMonths,
	}, clk)
	defer proc.Stop()

	if err := proc.Process(events); err != nil {
		log.Fatal(err)
	}

	sink.print(os.Stdout, *windowMonths)
}

func loadEvents(path string) ([]models.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return events, nil
}
