package processor

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/clock"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/config"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/recurrence"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/refuel"
)

type fakeSink struct {
	mu         sync.Mutex
	refuelings map[refuel.GroupKey][]refuel.Record
	order      []refuel.GroupKey
	summaries  map[refuel.GroupKey]models.FuelSummary
	costs      []models.CostOccurrence
	costWrites int
	err        error
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		refuelings: make(map[refuel.GroupKey][]refuel.Record),
		summaries:  make(map[refuel.GroupKey]models.FuelSummary),
	}
}

func (s *fakeSink) WriteRefuelings(records []refuel.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if len(records) > 0 {
		key := records[0].Group
		s.refuelings[key] = records
		s.order = append(s.order, key)
	}
	return nil
}

func (s *fakeSink) WriteFuelSummary(summary models.FuelSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := refuel.GroupKey{CarID: summary.CarID, FuelCategory: summary.FuelCategory}
	s.summaries[key] = summary
	return nil
}

func (s *fakeSink) WriteCostOccurrences(rows []models.CostOccurrence, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs = rows
	s.costWrites++
	return nil
}

var (
	now      = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	firstDay = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	dieselA  = refuel.GroupKey{CarID: "car-1", FuelCategory: "diesel"}
)

func testConfig() config.ProcessorConfig {
	return config.ProcessorConfig{
		WorkerCount:      1,
		QueueSize:        10,
		AutoReconstruct:  true,
		CostWindowMonths: 2,
	}
}

// refueling returns the week-th weekly refueling of car-1, priced at 1.5
func refueling(id string, week, mileage int, volume float64) models.Event {
	return models.Event{
		Type: models.EventRefueling,
		Refueling: &models.Refueling{
			ID:           id,
			CarID:        "car-1",
			FuelCategory: "Diesel",
			Mileage:      mileage,
			Date:         firstDay.AddDate(0, 0, 7*week),
			Volume:       volume,
			Price:        volume * 1.5,
		},
	}
}

func mileages(records []refuel.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Mileage
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProcessReconstructsAcrossBatches(t *testing.T) {
	sink := newFakeSink()
	p := NewProcessor(sink, testConfig(), clock.NewFixed(now))
	defer p.Stop()

	first := []models.Event{
		refueling("c", 2, 1300, 20),
		refueling("a", 0, 1000, 40),
		refueling("b", 1, 1050, 9),
	}
	if err := p.Process(first); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// redelivered b must not be counted twice
	second := []models.Event{
		refueling("d", 3, 1350, 9),
		refueling("b", 1, 1050, 9),
	}
	if err := p.Process(second); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	records := sink.refuelings[dieselA]
	want := []int{1000, 1050, 1100, 1150, 1189, 1300, 1350}
	if got := mileages(records); !equalInts(got, want) {
		t.Fatalf("mileages = %v, want %v", got, want)
	}

	summary := sink.summaries[dieselA]
	if summary.Refuelings != 7 || summary.Guessed != 3 {
		t.Errorf("Refuelings = %d, Guessed = %d, want 7 and 3", summary.Refuelings, summary.Guessed)
	}
	if summary.Distance != 350 || !summary.Valid || !summary.HasBaseline {
		t.Errorf("unexpected summary %+v", summary)
	}
	// 40 + 9 + 9 + 9 + 7 + 20 + 9 units at 1.5
	if cost := summary.Cost.InexactFloat64(); math.Abs(cost-154.5) > 1e-6 {
		t.Errorf("Cost = %v, want 154.5", cost)
	}
	// everything bought after the first fill over the distance driven
	if math.Abs(summary.Consumption-63.0/350) > 1e-9 {
		t.Errorf("Consumption = %v, want %v", summary.Consumption, 63.0/350)
	}
}

func TestProcessWithoutAutoReconstruct(t *testing.T) {
	sink := newFakeSink()
	cfg := testConfig()
	cfg.AutoReconstruct = false
	p := NewProcessor(sink, cfg, clock.NewFixed(now))
	defer p.Stop()

	events := []models.Event{
		refueling("a", 0, 1000, 40),
		refueling("b", 1, 1050, 9),
		refueling("c", 2, 1300, 20),
		refueling("d", 3, 1350, 9),
	}
	if err := p.Process(events); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got := mileages(sink.refuelings[dieselA]); !equalInts(got, []int{1000, 1050, 1300, 1350}) {
		t.Errorf("mileages = %v", got)
	}
	if s := sink.summaries[dieselA]; s.Guessed != 0 || !s.HasBaseline {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestProcessInvalidSeries(t *testing.T) {
	sink := newFakeSink()
	p := NewProcessor(sink, testConfig(), clock.NewFixed(now))
	defer p.Stop()

	events := []models.Event{
		refueling("a", 0, 1000, 40),
		refueling("b", 1, 1500, 40),
		refueling("c", 2, 1400, 40),
	}
	if err := p.Process(events); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	records := sink.refuelings[dieselA]
	if len(records) != 3 || records[2].Kind != refuel.Invalid {
		t.Fatalf("unexpected records %+v", records)
	}
	s := sink.summaries[dieselA]
	if s.Valid || s.Distance != 0 || s.Consumption != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestProcessWritesGroupsInKeyOrder(t *testing.T) {
	sink := newFakeSink()
	p := NewProcessor(sink, testConfig(), clock.NewFixed(now))
	defer p.Stop()

	petrol := refueling("p", 0, 500, 30)
	petrol.Refueling.CarID = "car-0"
	petrol.Refueling.FuelCategory = ""

	events := []models.Event{
		refueling("a", 0, 1000, 40),
		{Type: "meter"},
		petrol,
	}
	if err := p.Process(events); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []refuel.GroupKey{{CarID: "car-0", FuelCategory: "default"}, dieselA}
	if len(sink.order) != len(want) || sink.order[0] != want[0] || sink.order[1] != want[1] {
		t.Errorf("write order = %v, want %v", sink.order, want)
	}
}

func TestProcessReportsOtherCosts(t *testing.T) {
	sink := newFakeSink()
	p := NewProcessor(sink, testConfig(), clock.NewFixed(now))
	defer p.Stop()

	insurance := models.OtherCost{
		ID:                   "ins",
		CarID:                "car-1",
		Title:                "Insurance",
		Date:                 time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		Price:                49.99,
		RecurrenceInterval:   recurrence.Month,
		RecurrenceMultiplier: 1,
	}
	tyres := models.OtherCost{
		ID:                   "a-tyres",
		CarID:                "car-1",
		Title:                "Tyres",
		Date:                 time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		Price:                500,
		RecurrenceInterval:   recurrence.Once,
		RecurrenceMultiplier: 1,
	}

	events := []models.Event{
		{Type: models.EventOtherCost, OtherCost: &insurance},
		{Type: models.EventOtherCost, OtherCost: &tyres},
	}
	if err := p.Process(events); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(sink.costs) != 2 {
		t.Fatalf("got %d cost rows, want 2", len(sink.costs))
	}

	once := sink.costs[0]
	if once.CostID != "a-tyres" || once.Occurrences != 0 || once.Lifetime != 1 || !once.Total.IsZero() {
		t.Errorf("unexpected once row %+v", once)
	}

	// Jan 10 .. Mar 10 holds the Feb 1 and Mar 1 payments
	monthly := sink.costs[1]
	if monthly.Occurrences != 2 || monthly.Lifetime != 13 || monthly.Total.String() != "99.98" {
		t.Errorf("unexpected monthly row %+v", monthly)
	}

	// refuelings alone do not rewrite the cost report
	if err := p.Process([]models.Event{refueling("a", 0, 1000, 40)}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if sink.costWrites != 1 {
		t.Errorf("costWrites = %d, want 1", sink.costWrites)
	}
}

func TestProcessReturnsSinkErrors(t *testing.T) {
	errDown := errors.New("sink down")
	sink := newFakeSink()
	sink.err = errDown
	p := NewProcessor(sink, testConfig(), clock.NewFixed(now))
	defer p.Stop()

	err := p.Process([]models.Event{refueling("a", 0, 1000, 40)})
	if !errors.Is(err, errDown) {
		t.Fatalf("Process() error = %v, want %v", err, errDown)
	}
}

func TestProcessMessagesDrainsOnStop(t *testing.T) {
	sink := newFakeSink()
	cfg := testConfig()
	cfg.WorkerCount = 2
	p := NewProcessor(sink, cfg, clock.NewFixed(now))

	batch := []models.Event{refueling("a", 0, 1000, 40)}
	if err := p.ProcessMessages(batch); err != nil {
		t.Fatalf("ProcessMessages() error = %v", err)
	}
	batch[0] = refueling("z", 5, 9999, 1)

	p.Stop()

	records := sink.refuelings[dieselA]
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("records = %+v, want the queued copy", records)
	}
}

func TestLedgerDetectsStaleSnapshots(t *testing.T) {
	l := newLedger()

	first, _ := l.apply([]models.Event{refueling("a", 0, 1000, 40)})
	second, _ := l.apply([]models.Event{refueling("b", 1, 1500, 40)})

	if l.current(first[0].key, first[0].version) {
		t.Error("first snapshot should be stale")
	}
	if !l.current(second[0].key, second[0].version) {
		t.Error("second snapshot should be current")
	}
	if len(second[0].records) != 2 {
		t.Errorf("second snapshot has %d records, want 2", len(second[0].records))
	}
}

func TestUpsertOrdersByDateThenMileage(t *testing.T) {
	day := firstDay
	rec := func(id string, d time.Time, mileage int) refuel.Record {
		return refuel.NewRecorded(id, dieselA, mileage, d, 10, 15, false)
	}

	var series []refuel.Record
	series = upsert(series, rec("b", day, 1200))
	series = upsert(series, rec("a", day, 1100))
	series = upsert(series, rec("c", day.AddDate(0, 0, -1), 1300))
	series = upsert(series, rec("a", day.AddDate(0, 0, 1), 1400))

	var ids string
	for _, r := range series {
		ids += r.ID
	}
	if ids != "cba" {
		t.Errorf("order = %q, want %q", ids, "cba")
	}
}
