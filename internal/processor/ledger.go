package processor

import (
	"cmp"
	"log"
	"slices"
	"sync"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/refuel"
)

// ledger keeps every refueling per fuel group and every other cost seen
// so far. Versions grow with each change so that a worker holding an older
// snapshot can tell its output is stale.
type ledger struct {
	mu       sync.Mutex
	groups   map[refuel.GroupKey][]refuel.Record
	versions map[refuel.GroupKey]uint64
	costs    map[string]models.OtherCost
}

// snapshot is a copy of one group's series taken under the ledger lock
type snapshot struct {
	key     refuel.GroupKey
	version uint64
	records []refuel.Record
}

func newLedger() *ledger {
	return &ledger{
		groups:   make(map[refuel.GroupKey][]refuel.Record),
		versions: make(map[refuel.GroupKey]uint64),
		costs:    make(map[string]models.OtherCost),
	}
}

// apply merges a batch into the ledger and returns copies of the touched
// groups in key order, plus whether any other cost changed.
func (l *ledger) apply(events []models.Event) ([]snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	touched := make(map[refuel.GroupKey]bool)
	costsChanged := false

	for _, event := range events {
		if err := event.Validate(); err != nil {
			log.Printf("Skipping event: %v", err)
			continue
		}
		switch event.Type {
		case models.EventRefueling:
			record := event.Refueling.Record()
			l.groups[record.Group] = upsert(l.groups[record.Group], record)
			touched[record.Group] = true
		case models.EventOtherCost:
			cost := *event.OtherCost
			l.costs[cost.ID] = cost
			costsChanged = true
		}
	}

	keys := make([]refuel.GroupKey, 0, len(touched))
	for key := range touched {
		l.versions[key]++
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b refuel.GroupKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})

	snapshots := make([]snapshot, 0, len(keys))
	for _, key := range keys {
		snapshots = append(snapshots, snapshot{
			key:     key,
			version: l.versions[key],
			records: slices.Clone(l.groups[key]),
		})
	}
	return snapshots, costsChanged
}

// current reports whether no newer batch touched the group since version
func (l *ledger) current(key refuel.GroupKey, version uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.versions[key] == version
}

// otherCosts returns the known other costs ordered by id
func (l *ledger) otherCosts() []models.OtherCost {
	l.mu.Lock()
	defer l.mu.Unlock()

	costs := make([]models.OtherCost, 0, len(l.costs))
	for _, cost := range l.costs {
		costs = append(costs, cost)
	}
	slices.SortFunc(costs, func(a, b models.OtherCost) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return costs
}

// upsert replaces the record with the same id or inserts it, keeping the
// series ordered by date and then mileage
func upsert(series []refuel.Record, record refuel.Record) []refuel.Record {
	if i := slices.IndexFunc(series, func(r refuel.Record) bool { return r.ID == record.ID }); i >= 0 {
		series = slices.Delete(series, i, i+1)
	}
	i, _ := slices.BinarySearchFunc(series, record, compareRecords)
	// equal keys keep arrival order
	for i < len(series) && compareRecords(series[i], record) == 0 {
		i++
	}
	return slices.Insert(series, i, record)
}

func compareRecords(a, b refuel.Record) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.Mileage, b.Mileage)
}
