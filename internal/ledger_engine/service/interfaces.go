package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Engine moves money between accounts. Every failure it returns is a *shared.Error.
type Engine interface {
	Deposit(ctx context.Context, cmd ledger.DepositCommand) (*ledger.Entry, error)
	Transfer(ctx context.Context, cmd ledger.TransferCommand) (*ledger.Entry, error)
	Withdraw(ctx context.Context, cmd ledger.WithdrawCommand) (*ledger.Entry, error)
	Execute(ctx context.Context, cmd ledger.Command) (*ledger.Entry, error)
}

// UnitOfWork runs fn in one database transaction. fn's ctx carries the
// transaction deadline and must be used for every store call made with tx.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// Parties are the locked accounts one operation touches. When two roles resolve
// to the same account they share one pointer.
type Parties struct {
	Admin        *account.Account
	Source       *account.Account
	Counterparty *account.Account
}

// AccountManager resolves and persists the accounts of an operation inside a unit of work
type AccountManager interface {
	Admin(ctx context.Context, tx pgx.Tx) (*account.Account, error)
	Source(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*account.Account, error)
	Counterparty(ctx context.Context, tx pgx.Tx, phone string) (*account.Account, error)

	// Lock takes row locks on all three accounts in ascending id order
	Lock(ctx context.Context, tx pgx.Tx, adminID, sourceID, counterpartyID uuid.UUID) (*Parties, error)
	Save(ctx context.Context, tx pgx.Tx, parties *Parties) error
}

// EntryRecorder writes the ledger entry and its outbox event
type EntryRecorder interface {
	Record(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error
}

type SecretVerifier interface {
	Verify(hash, secret string) error
}

// PartyValidator checks eligibility of already loaded accounts and returns the first violated rule
type PartyValidator interface {
	Validate(t shared.TransactionType, source, counterparty *account.Account) error
}

// Fee is the charge on one operation and how it is split. Total == AgentIncome + AdminIncome.
type Fee struct {
	Total       decimal.Decimal
	AgentIncome decimal.Decimal
	AdminIncome decimal.Decimal
}

// FeeCalculator is pure: no I/O, same output for the same input
type FeeCalculator interface {
	Compute(t shared.TransactionType, amount decimal.Decimal) (Fee, error)
}
