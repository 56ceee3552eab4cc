package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Kafka     KafkaConfig
	InfluxDB  InfluxDBConfig
	Processor ProcessorConfig
}

// KafkaConfig holds Kafka-related configuration
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	GroupID       string
	ConsumerCount int
	BatchSize     int
	BatchTimeout  time.Duration
}

// InfluxDBConfig holds InfluxDB-related configuration
type InfluxDBConfig struct {
	URL    string
	Org    string
	Token  string
	Bucket string
}

// ProcessorConfig holds processor-related configuration
type ProcessorConfig struct {
	WorkerCount int
	QueueSize   int
	// AutoReconstruct enables insertion of guessed refuelings
	AutoReconstruct bool
	// CostWindowMonths is the trailing window other costs are reported over
	CostWindowMonths int
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Kafka: KafkaConfig{
			Brokers:       getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:         getEnv("KAFKA_TOPIC", "vehicle-cost-events"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "vehicle-cost-consumer"),
			ConsumerCount: getEnvInt("KAFKA_CONSUMER_COUNT", 3),
			BatchSize:     getEnvInt("KAFKA_BATCH_SIZE", 500),
			BatchTimeout:  getEnvDuration("KAFKA_BATCH_TIMEOUT", 1*time.Second),
		},
		InfluxDB: InfluxDBConfig{
			URL:    getEnv("INFLUXDB_URL", "http://localhost:8086"),
			Org:    getEnv("INFLUXDB_ORG", "vehicle-costs"),
			Token:  getEnv("INFLUX_TOKEN", ""),
			Bucket: getEnv("INFLUXDB_BUCKET", "vehicle-costs"),
		},
		Processor: ProcessorConfig{
			WorkerCount:      getEnvInt("PROCESSOR_WORKER_COUNT", 4),
			QueueSize:        getEnvInt("PROCESSOR_QUEUE_SIZE", 10000),
			AutoReconstruct:  getEnvBool("PROCESSOR_AUTO_RECONSTRUCT", true),
			CostWindowMonths: getEnvInt("PROCESSOR_COST_WINDOW_MONTHS", 12),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Kafka.Brokers) == 0 || strings.TrimSpace(c.Kafka.Brokers[0]) == "" {
		return fmt.Errorf("KAFKA_BROKERS must name at least one broker")
	}
	if c.Kafka.ConsumerCount < 1 || c.Kafka.BatchSize < 1 {
		return fmt.Errorf("kafka consumer count and batch size must be positive")
	}
	if c.Processor.WorkerCount < 1 || c.Processor.QueueSize < 1 {
		return fmt.Errorf("processor worker count and queue size must be positive")
	}
	if c.Processor.CostWindowMonths < 1 {
		return fmt.Errorf("PROCESSOR_COST_WINDOW_MONTHS must be positive, got %d", c.Processor.CostWindowMonths)
	}
	return nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
