package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/outbox"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/mobile-money-ledger/internal/ledger_engine/service"
)

// EntryRecorderImpl appends the ledger entry and queues its event in the same transaction
type EntryRecorderImpl struct {
	ledgerRepo ledger.Repository
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewEntryRecorder(ledgerRepo ledger.Repository, outboxRepo outbox.Repository, logger *slog.Logger) service.EntryRecorder {
	return &EntryRecorderImpl{
		ledgerRepo: ledgerRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (r *EntryRecorderImpl) Record(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	if err := r.ledgerRepo.WithTx(tx).Create(ctx, entry); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry{}) {
			r.logger.Warn("Transaction id collision", "transaction_id", entry.TransactionID)
			return shared.WrapError(shared.KindConflict, shared.FailureReasonConcurrentModification,
				"transaction id collision, retry", err)
		}
		return err
	}

	msg, err := outbox.NewMessage(entry)
	if err != nil {
		return shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "failed to encode ledger event", err)
	}
	if err := r.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to queue ledger event %s: %w", entry.TransactionID, err)
	}

	r.logger.Debug("Ledger entry recorded", "transaction_id", entry.TransactionID, "outbox_id", msg.ID)
	return nil
}
