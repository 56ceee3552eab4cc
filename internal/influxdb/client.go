package influxdb

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/config"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/refuel"
)

const (
	measurementRefueling = "refueling"
	measurementSummary   = "fuel_summary"
	measurementCost      = "other_cost_occurrences"
)

// Deletes span the whole range InfluxDB can store
var (
	deleteStart = time.Date(1678, time.January, 1, 0, 0, 0, 0, time.UTC)
	deleteStop  = time.Date(2262, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Client represents an InfluxDB v2 client
type Client struct {
	client    influxdb2.Client
	writeAPI  api.WriteAPI
	deleteAPI api.DeleteAPI
	config    config.InfluxDBConfig
}

// NewClient initializes the InfluxDB v2 client and verifies connectivity
func NewClient(cfg config.InfluxDBConfig) (*Client, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			log.Printf("InfluxDB write error: %v", err)
		}
	}()

	log.Printf("Connected to InfluxDB at %s (bucket %s)", cfg.URL, cfg.Bucket)
	return &Client{
		client:    client,
		writeAPI:  writeAPI,
		deleteAPI: client.DeleteAPI(),
		config:    cfg,
	}, nil
}

// WriteRefuelings replaces a fuel group's series, guessed refuelings
// included. Points of the previous series are deleted first so guesses that
// moved or disappeared do not linger.
func (c *Client) WriteRefuelings(records []refuel.Record) error {
	if len(records) == 0 {
		return nil
	}
	group := records[0].Group

	// Pending points of the previous series must land before the delete
	c.writeAPI.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := c.deleteAPI.DeleteWithName(ctx, c.config.Org, c.config.Bucket, deleteStart, deleteStop, groupPredicate(group))
	if err != nil {
		return fmt.Errorf("deleting previous refuelings of %s: %w", group, err)
	}

	for _, r := range records {
		c.writeAPI.WritePoint(refuelingPoint(r))
	}
	return nil
}

// WriteFuelSummary writes the consumption summary of one fuel group
func (c *Client) WriteFuelSummary(summary models.FuelSummary) error {
	c.writeAPI.WritePoint(summaryPoint(summary))
	return nil
}

// WriteCostOccurrences writes the recurrence report of other costs
func (c *Client) WriteCostOccurrences(rows []models.CostOccurrence, timestamp time.Time) error {
	for _, row := range rows {
		c.writeAPI.WritePoint(costPoint(row, timestamp))
	}
	return nil
}

// Close flushes pending points and closes the client
func (c *Client) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}

// refuelingPoint is keyed by the record id, so refuelings sharing a date
// stay apart and a record changing kind keeps its series
func refuelingPoint(r refuel.Record) *write.Point {
	return write.NewPoint(
		measurementRefueling,
		map[string]string{
			"car_id":        r.Group.CarID,
			"fuel_category": r.Group.FuelCategory,
			"id":            r.ID,
		},
		map[string]interface{}{
			"kind":    r.Kind.String(),
			"mileage": r.Mileage,
			"volume":  r.Volume,
			"price":   r.Price,
			"partial": r.Partial(),
			"guessed": r.Guessed(),
			"valid":   r.Valid(),
		},
		r.Date,
	)
}

func summaryPoint(s models.FuelSummary) *write.Point {
	fields := map[string]interface{}{
		"valid":       s.Valid,
		"refuelings":  s.Refuelings,
		"guessed":     s.Guessed,
		"distance":    s.Distance,
		"volume":      s.Volume,
		"cost":        s.Cost.InexactFloat64(),
		"consumption": s.Consumption,
	}
	if s.HasBaseline {
		fields["avg_consumption"] = s.AvgConsumption
		fields["avg_distance"] = s.AvgDistance
		fields["avg_price_per_unit"] = s.AvgPrice
	}
	return write.NewPoint(
		measurementSummary,
		map[string]string{
			"car_id":        s.CarID,
			"fuel_category": s.FuelCategory,
		},
		fields,
		s.Timestamp,
	)
}

func costPoint(row models.CostOccurrence, timestamp time.Time) *write.Point {
	return write.NewPoint(
		measurementCost,
		map[string]string{
			"car_id":   row.CarID,
			"cost_id":  row.CostID,
			"interval": row.Interval,
		},
		map[string]interface{}{
			"title":       row.Title,
			"occurrences": row.Occurrences,
			"lifetime":    row.Lifetime,
			"total":       row.Total.InexactFloat64(),
		},
		timestamp,
	)
}

// groupPredicate selects every refueling point of a fuel group
func groupPredicate(group refuel.GroupKey) string {
	return fmt.Sprintf(`_measurement="%s" AND car_id="%s" AND fuel_category="%s"`,
		measurementRefueling, escapePredicate(group.CarID), escapePredicate(group.FuelCategory))
}

func escapePredicate(value string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
}
