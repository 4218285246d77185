package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mobile-money-ledger/internal/config"
	"github.com/mobile-money-ledger/internal/domain/outbox"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/mobile-money-ledger/internal/platform/messaging/producers"
	"github.com/sony/gobreaker"
)

// ErrBrokerUnavailable means the breaker refused the call without contacting Kafka
var ErrBrokerUnavailable = errors.New("ledger event broker unavailable")

// EventPublisher publishes one outbox message and marks it processed
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl sends outbox payloads to the ledger event topic through a circuit breaker
type EventPublisherImpl struct {
	producer   producers.EventPublisher
	outboxRepo outbox.Repository
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewEventPublisher(
	producer producers.EventPublisher,
	outboxRepo outbox.Repository,
	cfg *config.BreakerConfig,
	logger *slog.Logger,
) *EventPublisherImpl {
	settings := gobreaker.Settings{
		Name:        "ledger-event-publisher",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &EventPublisherImpl{
		producer:   producer,
		outboxRepo: outboxRepo,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// Publish keys the event by transaction id. A message is marked processed only
// after the broker acknowledged it; a crash in between publishes it again,
// which history projection tolerates.
func (p *EventPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.producer.Publish(ctx, message.TransactionID, message.Payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
		}
		return fmt.Errorf("failed to publish ledger event %s: %w", message.TransactionID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		p.logger.Error("Ledger event published but outbox message not marked processed",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("failed to mark outbox %d as processed: %w", message.ID, err)
	}
	return nil
}

func (p *EventPublisherImpl) State() gobreaker.State {
	return p.breaker.State()
}
