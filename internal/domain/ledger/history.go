package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Side tells which end of an entry a history record was projected for
type Side string

const (
	SideSource       Side = "source"
	SideCounterparty Side = "counterparty"
)

// HistoryRecord is one participant's view of a committed entry.
// Delta is the signed balance change of that participant; Income is agent commission.
type HistoryRecord struct {
	TransactionID string                 `json:"transaction_id"`
	AccountID     uuid.UUID              `json:"account_id"`
	Side          Side                   `json:"side"`
	Type          shared.TransactionType `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	Fee           decimal.Decimal        `json:"fee"`
	Delta         decimal.Decimal        `json:"delta"`
	Income        decimal.Decimal        `json:"income"`
	Counterparty  *account.Summary       `json:"counterparty,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// HistoryRepository is the per-account read model fed by ledger events
type HistoryRepository interface {
	// Project stores records idempotently, keyed by transaction id and account id
	Project(ctx context.Context, records []HistoryRecord) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*HistoryRecord, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// History splits an entry into the source and counterparty records.
// The source pays amount plus fee. The counterparty gains the amount, except
// on withdraw where the agent pays out cash and earns the agent income.
func (e *Entry) History() []HistoryRecord {
	source := HistoryRecord{
		TransactionID: e.TransactionID,
		AccountID:     e.SourceID,
		Side:          SideSource,
		Type:          e.Type,
		Amount:        e.Amount,
		Fee:           e.Fee,
		Delta:         e.Amount.Add(e.Fee).Neg(),
		Income:        decimal.Zero,
		Counterparty:  e.Counterparty,
		CorrelationID: e.CorrelationID,
		CreatedAt:     e.CreatedAt,
	}

	counterparty := HistoryRecord{
		TransactionID: e.TransactionID,
		AccountID:     e.CounterpartyID,
		Side:          SideCounterparty,
		Type:          e.Type,
		Amount:        e.Amount,
		Fee:           decimal.Zero,
		Delta:         e.Amount,
		Income:        decimal.Zero,
		Counterparty:  e.Source,
		CorrelationID: e.CorrelationID,
		CreatedAt:     e.CreatedAt,
	}
	if e.Type == shared.TransactionTypeWithdraw {
		counterparty.Delta = e.Amount.Neg()
		counterparty.Income = e.AgentIncome
	}

	return []HistoryRecord{source, counterparty}
}
