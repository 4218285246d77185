package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/platform/messaging/producers"
)

// LedgerEventHandler projects committed ledger entries into account history
type LedgerEventHandler struct {
	history ledger.HistoryRepository
	dlq     producers.DeadLetterPublisher
	logger  *slog.Logger
}

func NewLedgerEventHandler(
	logger *slog.Logger,
	history ledger.HistoryRepository,
	dlq producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		history: history,
		dlq:     dlq,
		logger:  logger,
	}
}

// HandleMessage returns nil once the event is projected or parked in the DLQ.
// A returned error leaves the offset uncommitted so the event is redelivered.
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	entry, err := decodeEntry(value)
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger.With("transaction_id", entry.TransactionID, "type", string(entry.Type))
	if entry.CorrelationID != "" {
		logger = logger.With("correlation_id", entry.CorrelationID)
	}

	if err := h.history.Project(ctx, entry.History()); err != nil {
		logger.Error("Failed to project ledger event", "error", err)
		return fmt.Errorf("projecting ledger event %s failed: %w", entry.TransactionID, err)
	}

	logger.Info("Projected ledger event into account history")
	return nil
}

func (h *LedgerEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	reason := "undecodable ledger event: " + cause.Error()
	h.logger.Error("Failed to decode ledger event", "error", cause, "message_key", string(key))

	err := h.dlq.PublishToDLQ(ctx, string(key), value, reason)
	switch {
	case err == nil:
		h.logger.Info("Published undecodable ledger event to DLQ", "message_key", string(key))
		return nil
	case errors.Is(err, producers.ErrDLQDisabled):
		h.logger.Warn("Dropping undecodable ledger event, DLQ disabled", "message_key", string(key))
		return nil
	default:
		h.logger.Error("Failed to publish ledger event to DLQ", "dlq_error", err, "message_key", string(key))
		return fmt.Errorf("failed to dead-letter ledger event: %w", err)
	}
}

func decodeEntry(value []byte) (*ledger.Entry, error) {
	var entry ledger.Entry
	if err := json.Unmarshal(value, &entry); err != nil {
		return nil, err
	}
	switch {
	case !ledger.ValidTransactionID(entry.TransactionID):
		return nil, fmt.Errorf("invalid transaction id %q", entry.TransactionID)
	case !entry.Type.Valid():
		return nil, fmt.Errorf("invalid transaction type %q", entry.Type)
	case entry.SourceID == uuid.Nil || entry.CounterpartyID == uuid.Nil:
		return nil, errors.New("missing participant ids")
	}
	return &entry, nil
}
