package processor

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/clock"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/config"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/refuel"
)

// Sink receives the derived series. The InfluxDB client implements it.
type Sink interface {
	WriteRefuelings(records []refuel.Record) error
	WriteFuelSummary(summary models.FuelSummary) error
	WriteCostOccurrences(rows []models.CostOccurrence, timestamp time.Time) error
}

// Processor processes incoming vehicle cost events
type Processor struct {
	sink    Sink
	config  config.ProcessorConfig
	clock   clock.Clock
	queue   chan []models.Event
	wg      sync.WaitGroup
	ledger  *ledger
	writeMu sync.Mutex
}

// NewProcessor creates a new processor and starts its workers. A nil clock
// means the system clock.
func NewProcessor(sink Sink, config config.ProcessorConfig, clk clock.Clock) *Processor {
	if clk == nil {
		clk = clock.Real{}
	}
	p := &Processor{
		sink:   sink,
		config: config,
		clock:  clk,
		queue:  make(chan []models.Event, config.QueueSize),
		ledger: newLedger(),
	}

	p.wg.Add(config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		go p.worker(i)
	}

	return p
}

// ProcessMessages queues a batch of events for the workers
func (p *Processor) ProcessMessages(events []models.Event) error {
	// Copy so the consumer can reuse its buffer
	batch := make([]models.Event, len(events))
	copy(batch, events)

	select {
	case p.queue <- batch:
		return nil
	default:
		// Queue is full, log and drop messages
		log.Printf("Warning: Processing queue is full, dropping %d events", len(events))
		return nil
	}
}

// worker processes batches from the queue
func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for batch := range p.queue {
		if err := p.Process(batch); err != nil {
			log.Printf("Worker %d: %v", id, err)
		}
	}
}

// Process merges a batch into the ledger, reconstructs every fuel group
// it touched and writes the results. It runs synchronously.
func (p *Processor) Process(events []models.Event) error {
	snapshots, costsChanged := p.ledger.apply(events)
	now := p.clock.Now()
	opts := refuel.Options{AutoReconstruct: p.config.AutoReconstruct}

	var errs []error
	for _, snap := range snapshots {
		result := refuel.Reconstruct(snap.records, opts)
		if result.Inserted > 0 {
			log.Printf("Group %s: inserted %d guessed refuelings", snap.key, result.Inserted)
		}
		if !result.Valid {
			log.Printf("Group %s: mileage is not monotonic, skipping reconstruction", snap.key)
		}
		if err := p.writeGroup(snap, result, now); err != nil {
			errs = append(errs, err)
		}
	}

	if costsChanged {
		if err := p.writeCosts(now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeGroup skips the write when a newer batch already touched the group,
// as that batch writes a series containing this one.
func (p *Processor) writeGroup(snap snapshot, result refuel.Result, now time.Time) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if !p.ledger.current(snap.key, snap.version) {
		return nil
	}
	if err := p.sink.WriteRefuelings(result.Records); err != nil {
		return fmt.Errorf("writing refuelings of %s: %w", snap.key, err)
	}
	if err := p.sink.WriteFuelSummary(summarize(snap.key, result, now)); err != nil {
		return fmt.Errorf("writing summary of %s: %w", snap.key, err)
	}
	return nil
}

// writeCosts reports every known other cost, not only the changed ones
func (p *Processor) writeCosts(now time.Time) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	rows := costReport(p.ledger.otherCosts(), now, p.config.CostWindowMonths)
	if err := p.sink.WriteCostOccurrences(rows, now); err != nil {
		return fmt.Errorf("writing cost occurrences: %w", err)
	}
	return nil
}

// Stop stops the processor once queued batches are done
func (p *Processor) Stop() {
	close(p.queue)
	p.wg.Wait()
}
