package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Entry is one committed money movement. It is written once, in the same
// unit of work as the balance changes it describes, and never updated.
type Entry struct {
	ID             uuid.UUID              `json:"id"`
	TransactionID  string                 `json:"transaction_id"`
	Type           shared.TransactionType `json:"type"`
	Amount         decimal.Decimal        `json:"amount"`
	Fee            decimal.Decimal        `json:"fee"`
	AgentIncome    decimal.Decimal        `json:"agent_income"`
	AdminIncome    decimal.Decimal        `json:"admin_income"`
	SourceID       uuid.UUID              `json:"source_id"`
	CounterpartyID uuid.UUID              `json:"counterparty_id"`
	Source         *account.Summary       `json:"source,omitempty"`
	Counterparty   *account.Summary       `json:"counterparty,omitempty"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// NewEntry stamps a fresh identifier and timestamp on a movement between source and counterparty
func NewEntry(t shared.TransactionType, amount, fee, agentIncome, adminIncome decimal.Decimal, source, counterparty *account.Account, correlationID string) *Entry {
	now := time.Now().UTC()
	return &Entry{
		ID:             uuid.New(),
		TransactionID:  NewTransactionID(now),
		Type:           t,
		Amount:         amount,
		Fee:            fee,
		AgentIncome:    agentIncome,
		AdminIncome:    adminIncome,
		SourceID:       source.ID,
		CounterpartyID: counterparty.ID,
		Source:         source.Summary(),
		Counterparty:   counterparty.Summary(),
		CorrelationID:  correlationID,
		CreatedAt:      now,
	}
}

// Involves reports whether accountID is the source or the counterparty
func (e *Entry) Involves(accountID uuid.UUID) bool {
	return e.SourceID == accountID || e.CounterpartyID == accountID
}
