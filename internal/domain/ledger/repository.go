package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository is the append-only ledger store
type Repository interface {
	// Create inserts an entry; callers pass a tx-bound repository so the entry commits with its balance changes
	Create(ctx context.Context, entry *Entry) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Entry, error)
	ListByParticipant(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByParticipant(ctx context.Context, accountID uuid.UUID) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	TransactionID string
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.TransactionID
}

// Is matches any ErrEntryNotFound when the target has no transaction id
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == "" || t.TransactionID == e.TransactionID
}

// ErrDuplicateEntry indicates a transaction id collision
type ErrDuplicateEntry struct {
	TransactionID string
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry: " + e.TransactionID
}

func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	return t.TransactionID == "" || t.TransactionID == e.TransactionID
}
