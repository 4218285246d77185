package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
	engine "github.com/mobile-money-ledger/internal/ledger_engine/service"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	engine      engine.Engine
	ledgerRepo  ledger.Repository
	historyRepo ledger.HistoryRepository
	logger      *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	logger *slog.Logger,
	ledgerEngine engine.Engine,
	ledgerRepo ledger.Repository,
	historyRepo ledger.HistoryRepository,
) TransactionService {
	return &TransactionServiceImpl{
		engine:      ledgerEngine,
		ledgerRepo:  ledgerRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// Execute hands the command to the engine, which commits synchronously
func (s *TransactionServiceImpl) Execute(ctx context.Context, cmd ledger.Command) (*ledger.Entry, error) {
	entry, err := s.engine.Execute(ctx, cmd)
	if err != nil {
		return nil, shared.AsError(err)
	}
	return entry, nil
}

// GetTransaction hides entries the caller is not part of behind NotFound
func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, transactionID string, caller Caller) (*ledger.Entry, error) {
	notFound := shared.NewError(shared.KindNotFound, shared.FailureReasonTransactionNotFound, "transaction not found")

	if !ledger.ValidTransactionID(transactionID) {
		return nil, notFound
	}

	entry, err := s.ledgerRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			return nil, notFound
		}
		s.logger.Error("Failed to get transaction", "transaction_id", transactionID, "error", err)
		return nil, shared.AsError(err)
	}

	if caller.Role != account.RoleAdmin && !entry.Involves(caller.AccountID) {
		s.logger.Warn("Transaction lookup by non-participant",
			"transaction_id", transactionID,
			"account_id", caller.AccountID.String(),
		)
		return nil, notFound
	}
	return entry, nil
}

func (s *TransactionServiceImpl) History(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.HistoryRecord, int64, error) {
	offset := (page - 1) * perPage

	records, err := s.historyRepo.ListByAccount(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}

	total, err := s.historyRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}

	return records, total, nil
}

func (s *TransactionServiceImpl) Statement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.ledgerRepo.ListByParticipant(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}

	total, err := s.ledgerRepo.CountByParticipant(ctx, accountID)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}

	return entries, total, nil
}
