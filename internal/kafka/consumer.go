package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/config"
	"github.com/kanna-karuppasamy/vehicle-cost-consumer/internal/models"

	"github.com/Shopify/sarama"
)

// MessageProcessor is a function that processes batches of events
type MessageProcessor func([]models.Event) error

// Consumer represents a Kafka consumer
type Consumer struct {
	id         string
	config     config.KafkaConfig
	consumer   sarama.ConsumerGroup
	processor  MessageProcessor
	msgBuffer  []models.Event
	bufferLock sync.Mutex
	lastFlush  time.Time
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(id string, config config.KafkaConfig, processor MessageProcessor) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin

	saramaConfig.Consumer.Fetch.Min = 1
	saramaConfig.Consumer.Fetch.Default = 1024 * 1024 // 1MB
	saramaConfig.Consumer.MaxWaitTime = 250 * time.Millisecond

	client, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating consumer group %s: %w", config.GroupID, err)
	}

	return newConsumer(id, config, client, processor), nil
}

func newConsumer(id string, config config.KafkaConfig, group sarama.ConsumerGroup, processor MessageProcessor) *Consumer {
	return &Consumer{
		id:        id,
		config:    config,
		consumer:  group,
		processor: processor,
		msgBuffer: make([]models.Event, 0, config.BatchSize),
		lastFlush: time.Now(),
	}
}

// Consume starts consuming messages from Kafka until ctx is done
func (c *Consumer) Consume(ctx context.Context) error {
	defer c.consumer.Close()

	// Only the first group error ends the loop, later ones are logged
	errorChan := make(chan error, 1)
	go func() {
		for err := range c.consumer.Errors() {
			log.Printf("Consumer %s error: %v", c.id, err)
			select {
			case errorChan <- err:
			default:
			}
		}
	}()

	handler := &consumerGroupHandler{
		consumer: c,
		ctx:      ctx,
	}

	flushTicker := time.NewTicker(c.config.BatchTimeout)
	defer flushTicker.Stop()

	done := make(chan struct{})
	defer close(done)
	go c.flushLoop(ctx, done, flushTicker.C)

	for {
		select {
		case <-ctx.Done():
			c.flushBuffer()
			return nil
		case err := <-errorChan:
			c.flushBuffer()
			return err
		default:
			if err := c.consumer.Consume(ctx, []string{c.config.Topic}, handler); err != nil {
				c.flushBuffer()
				if errors.Is(err, context.Canceled) || errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return nil
				}
				return err
			}
		}
	}
}

// flushLoop flushes on every tick until ctx is cancelled or done is closed
func (c *Consumer) flushLoop(ctx context.Context, done <-chan struct{}, tick <-chan time.Time) {
	for {
		select {
		case <-tick:
			c.flushBuffer()
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// addMessage adds an event to the buffer and flushes if needed
func (c *Consumer) addMessage(event models.Event) {
	c.bufferLock.Lock()
	defer c.bufferLock.Unlock()

	c.msgBuffer = append(c.msgBuffer, event)

	if len(c.msgBuffer) >= c.config.BatchSize {
		c.flushBufferLocked()
	}
}

// flushBuffer flushes the message buffer
func (c *Consumer) flushBuffer() {
	c.bufferLock.Lock()
	defer c.bufferLock.Unlock()

	c.flushBufferLocked()
}

// flushBufferLocked hands the buffered events to the processor while
// holding the lock. Batches reach the processor in arrival order.
func (c *Consumer) flushBufferLocked() {
	if len(c.msgBuffer) == 0 {
		return
	}

	events := make([]models.Event, len(c.msgBuffer))
	copy(events, c.msgBuffer)

	c.msgBuffer = c.msgBuffer[:0]
	c.lastFlush = time.Now()

	if err := c.processor(events); err != nil {
		log.Printf("Error processing events: %v", err)
	}
}

// decodeEvent unmarshals and validates a message value
func decodeEvent(value []byte) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return models.Event{}, fmt.Errorf("unmarshalling event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ctx      context.Context
}

func (h *consumerGroupHandler) Setup(_ sarama.ConsumerGroupSession) error { return nil }

// Cleanup runs before a rebalance commits offsets
func (h *consumerGroupHandler) Cleanup(_ sarama.ConsumerGroupSession) error {
	h.consumer.flushBuffer()
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if h.ctx.Err() != nil {
			return h.ctx.Err()
		}

		event, err := decodeEvent(message.Value)
		if err != nil {
			// poison messages are skipped, not retried
			log.Printf("Dropping message at %s/%d offset %d: %v", message.Topic, message.Partition, message.Offset, err)
			session.MarkMessage(message, "")
			continue
		}

		h.consumer.addMessage(event)
		session.MarkMessage(message, "")
	}
	return nil
}
