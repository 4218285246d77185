package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/mobile-money-ledger/internal/ledger_engine/service"
)

// AccountManagerImpl implements the AccountManager interface
type AccountManagerImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

func NewAccountManager(accountRepo account.Repository, logger *slog.Logger) service.AccountManager {
	return &AccountManagerImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

func (m *AccountManagerImpl) Admin(ctx context.Context, tx pgx.Tx) (*account.Account, error) {
	admin, err := m.accountRepo.WithTx(tx).GetAdmin(ctx)
	if err != nil {
		if errors.As(err, new(account.ErrAdminNotFound)) {
			m.logger.Error("Admin account is missing; ledger cannot operate")
			return nil, shared.WrapError(shared.KindInternal, shared.FailureReasonAdminMissing, "ledger is not initialised", err)
		}
		return nil, err
	}
	return admin, nil
}

func (m *AccountManagerImpl) Source(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*account.Account, error) {
	acc, err := m.accountRepo.WithTx(tx).GetByID(ctx, id)
	if err != nil {
		if errors.As(err, new(account.ErrAccountNotFound)) {
			return nil, shared.WrapError(shared.KindNotFound, shared.FailureReasonSourceNotFound, "your account was not found", err)
		}
		return nil, err
	}
	return acc, nil
}

func (m *AccountManagerImpl) Counterparty(ctx context.Context, tx pgx.Tx, phone string) (*account.Account, error) {
	acc, err := m.accountRepo.WithTx(tx).GetByPhone(ctx, phone)
	if err != nil {
		if errors.As(err, new(account.ErrAccountNotFound)) {
			return nil, shared.WrapError(shared.KindNotFound, shared.FailureReasonCounterpartyNotFound,
				"no account is registered with phone "+phone, err)
		}
		return nil, err
	}
	return acc, nil
}

// Lock takes all row locks in a single ordered statement. The returned parties
// are the locked rows, which may be newer than what Admin, Source and
// Counterparty read.
func (m *AccountManagerImpl) Lock(ctx context.Context, tx pgx.Tx, adminID, sourceID, counterpartyID uuid.UUID) (*service.Parties, error) {
	locked, err := m.accountRepo.WithTx(tx).LockForUpdate(ctx, []uuid.UUID{adminID, sourceID, counterpartyID})
	if err != nil {
		return nil, err
	}

	parties := &service.Parties{
		Admin:        locked[adminID],
		Source:       locked[sourceID],
		Counterparty: locked[counterpartyID],
	}
	switch {
	case parties.Admin == nil:
		return nil, shared.NewError(shared.KindInternal, shared.FailureReasonAdminMissing, "ledger is not initialised")
	case parties.Source == nil:
		return nil, shared.NewError(shared.KindNotFound, shared.FailureReasonSourceNotFound, "your account was not found")
	case parties.Counterparty == nil:
		return nil, shared.NewError(shared.KindNotFound, shared.FailureReasonCounterpartyNotFound, "counterparty account was not found")
	}

	m.logger.Debug("Accounts locked",
		"admin_id", adminID.String(),
		"source_id", sourceID.String(),
		"counterparty_id", counterpartyID.String(),
	)
	return parties, nil
}

// Save writes each distinct account once
func (m *AccountManagerImpl) Save(ctx context.Context, tx pgx.Tx, parties *service.Parties) error {
	repo := m.accountRepo.WithTx(tx)
	seen := make(map[uuid.UUID]struct{}, 3)

	for _, acc := range []*account.Account{parties.Source, parties.Counterparty, parties.Admin} {
		if _, done := seen[acc.ID]; done {
			continue
		}
		seen[acc.ID] = struct{}{}

		if err := repo.UpdateFunds(ctx, acc); err != nil {
			if errors.As(err, new(account.ErrConcurrentModification)) {
				m.logger.Warn("Concurrent modification on locked account", "account_id", acc.ID.String())
			}
			return err
		}
	}
	return nil
}
