package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mobile-money-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// Every record on the ledger event topic carries this header
const (
	EventTypeHeader      = "event-type"
	LedgerEntryCommitted = "ledger.entry.committed"
)

// LedgerEventProducer publishes committed ledger entries keyed by transaction id
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewLedgerEventProducer ensures the topic exists and opens a synchronous writer.
// The outbox only marks a message processed after Publish returns, so writes are never async.
func NewLedgerEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.LedgerEventTopic == "" {
		return nil, fmt.Errorf("kafka ledger event topic is not configured")
	}
	if err := ensureTopic(ctx, cfg, cfg.LedgerEventTopic, logger); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LedgerEventTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return NewLedgerEventProducerWithWriter(logger, writer, cfg.LedgerEventTopic), nil
}

func NewLedgerEventProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *LedgerEventProducer {
	return &LedgerEventProducer{logger: logger, writer: writer, topic: topic}
}

// Publish sends value as is. Hash balancing on the key keeps all events of
// one transaction on one partition.
func (p *LedgerEventProducer) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(LedgerEntryCommitted)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event", "topic", p.topic, "key", key, "error", err)
		return fmt.Errorf("failed to publish ledger event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger event", "topic", p.topic, "key", key)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
