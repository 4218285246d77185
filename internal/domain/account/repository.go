package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository is the account store. Reads outside a transaction may be stale;
// anything that feeds a balance change must go through LockForUpdate on a tx-bound repository.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByPhone(ctx context.Context, phone string) (*Account, error)

	// GetAdmin resolves the single admin account by role
	GetAdmin(ctx context.Context) (*Account, error)

	// LockForUpdate locks every listed account in ascending id order and returns them keyed by id.
	// Missing ids are absent from the map.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Account, error)

	// UpdateFunds persists balance, income and total money if the stored version still
	// equals account.Version, then bumps account.Version.
	UpdateFunds(ctx context.Context, account *Account) error

	// ListPendingAgents pages through unverified agents, oldest registration first
	ListPendingAgents(ctx context.Context, limit, offset int) ([]*Account, error)
	CountPendingAgents(ctx context.Context) (int64, error)

	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error

	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates the row changed under an update
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// ErrAccountNotFound is returned by point lookups; exactly one of AccountID or Phone is set
type ErrAccountNotFound struct {
	AccountID uuid.UUID
	Phone     string
}

func (e ErrAccountNotFound) Error() string {
	if e.Phone != "" {
		return "account not found for phone: " + e.Phone
	}
	return "account not found: " + e.AccountID.String()
}

// ErrAdminNotFound means the admin singleton is missing, which the ledger cannot run without
type ErrAdminNotFound struct{}

func (ErrAdminNotFound) Error() string {
	return "admin account not found"
}

// ErrDuplicateAccount indicates a phone, email or admin uniqueness violation
type ErrDuplicateAccount struct {
	Field string
}

func (e ErrDuplicateAccount) Error() string {
	return "account already exists with the same " + e.Field
}
