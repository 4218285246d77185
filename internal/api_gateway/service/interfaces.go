package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
)

// RegisterRequest carries a new account's identity and chosen role
type RegisterRequest struct {
	Name   string
	Email  string
	Phone  string
	Secret string
	Role   account.Role
}

// Session is the result of a successful login
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *account.Account
}

// Caller is the authenticated identity behind a request
type Caller struct {
	AccountID uuid.UUID
	Role      account.Role
}

// AccountService covers registration, login and moderation.
// Every returned error is a *shared.Error.
type AccountService interface {
	// Register creates a user, agent or the single admin and books the opening balance on the admin's total money
	Register(ctx context.Context, req RegisterRequest) (*account.Account, error)

	// Login checks phone and secret and issues a token; blocked and unverified accounts are refused
	Login(ctx context.Context, phone, secret string) (*Session, error)

	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// PendingApprovals pages through agents waiting for approval, oldest first
	PendingApprovals(ctx context.Context, page, perPage int) ([]*account.Account, int64, error)

	// Approve verifies a pending agent
	Approve(ctx context.Context, id uuid.UUID) (*account.Account, error)

	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*account.Account, error)
}

// TransactionService runs ledger commands and serves the ledger read side.
// Every returned error is a *shared.Error.
type TransactionService interface {
	Execute(ctx context.Context, cmd ledger.Command) (*ledger.Entry, error)

	// GetTransaction returns an entry the caller took part in; the admin sees every entry
	GetTransaction(ctx context.Context, transactionID string, caller Caller) (*ledger.Entry, error)

	// History pages through the caller's projected history, newest first
	History(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.HistoryRecord, int64, error)

	// Statement pages through the ledger entries of any account, newest first
	Statement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error)
}

// SecretHasher hashes secrets at registration and checks them at login
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(hash, secret string) error
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(acc *account.Account) (string, time.Time, error)
}
