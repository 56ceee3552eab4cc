package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/clock"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/config"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/influxdb"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/kafka"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/processor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	influxClient, err := influxdb.NewClient(cfg.InfluxDB)
	if err != nil {
		log.Fatalf("Failed to create InfluxDB client: %v", err)
	}
	// Closed explicitly once consumers and processor have stopped

	proc := processor.NewProcessor(influxClient, cfg.Processor, clock.Real{})
	log.Printf("Processor started with %d workers (auto reconstruction %t, cost window %d months)",
		cfg.Processor.WorkerCount, cfg.Processor.AutoReconstruct, cfg.Processor.CostWindowMonths)

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	log.Printf("Starting %d Kafka consumers on topic %s...", cfg.Kafka.ConsumerCount, cfg.Kafka.Topic)

	for i := 0; i < cfg.Kafka.ConsumerCount; i++ {
		consumer, err := kafka.NewConsumer(
			fmt.Sprintf("consumer-%d", i),
			cfg.Kafka,
			proc.ProcessMessages,
		)
		if err != nil {
			log.Fatalf("Failed to create consumer %d: %v", i, err)
		}

		wg.Add(1)
		go func(c *kafka.Consumer, id int) {
			defer wg.Done()
			log.Printf("Starting consumer %d", id)
			if err := c.Consume(ctx); err != nil {
				log.Printf("Consumer %d error: %v", id, err)
			}
			log.Printf("Consumer %d stopped", id)
		}(consumer, i)
	}

	<-sigChan
	log.Println("Received termination signal. Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		// Consumers flushed their buffers, let workers drain the queue
		proc.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All consumers and workers stopped successfully")
	case <-shutdownCtx.Done():
		log.Println("Shutdown timed out, forcing exit")
	}

	log.Println("Closing InfluxDB client...")
	influxClient.Close()

	log.Println("Shutdown complete.")
}
