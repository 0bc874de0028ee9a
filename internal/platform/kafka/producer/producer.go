package producer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message represents a message to be published to Kafka.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer wraps the franz-go client with a simpler interface.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// Config holds producer configuration.
type Config struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig(brokers string) Config {
	return Config{
		Brokers:         brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 30 * time.Second,
	}
}

// New creates a new Kafka producer.
func New(cfg Config, logger *slog.Logger) (*Producer, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	brokers := strings.Split(cfg.Brokers, ",")

	var acks kgo.Acks
	switch cfg.Acks {
	case "0":
		acks = kgo.NoAck()
	case "1":
		acks = kgo.LeaderAck()
	default:
		acks = kgo.AllISRAcks()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(acks),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerBatchMaxBytes(16384),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}

	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		client: client,
		logger: logger,
	}, nil
}

// Produce sends a message to Kafka synchronously.
// It waits for the delivery report before returning.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("producer is closed")
	}
	p.mu.RUnlock()

	var headers []kgo.RecordHeader
	for k, v := range msg.Headers {
		headers = append(headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	record := &kgo.Record{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}

	// ProduceSync waits for the record to be acknowledged
	results := p.client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	return nil
}

// Close flushes pending records and shuts the producer down.
func (p *Producer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil && p.logger != nil {
		p.logger.Error("kafka producer flush failed", "error", err)
	}
	p.client.Close()
}
