package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *ledger.Entry {
	src := &account.Account{ID: uuid.New(), Name: "U", Phone: "0171234567", Role: account.RoleUser}
	agent := &account.Account{ID: uuid.New(), Name: "A", Phone: "0181234567", Role: account.RoleAgent}
	return ledger.NewEntry(shared.TransactionTypeWithdraw,
		decimal.NewFromInt(200), decimal.RequireFromString("3"), decimal.NewFromInt(2), decimal.NewFromInt(1),
		src, agent, "corr-9")
}

func TestNewMessage(t *testing.T) {
	entry := sampleEntry()

	msg, err := NewMessage(entry)
	require.NoError(t, err)

	assert.Equal(t, entry.TransactionID, msg.TransactionID)
	assert.Equal(t, shared.OutboxStatusPending, msg.Status)
	assert.Zero(t, msg.Attempts)
	assert.Nil(t, msg.LastAttemptAt)

	decoded, err := msg.LedgerEntry()
	require.NoError(t, err)
	assert.Equal(t, entry.TransactionID, decoded.TransactionID)
	assert.Equal(t, entry.CounterpartyID, decoded.CounterpartyID)
	assert.True(t, entry.Fee.Equal(decoded.Fee))
	assert.True(t, entry.CreatedAt.Equal(decoded.CreatedAt))
	require.NotNil(t, decoded.Counterparty)
	assert.Equal(t, account.RoleAgent, decoded.Counterparty.Role)
}

func TestMessage_Lifecycle(t *testing.T) {
	msg := &Message{Status: shared.OutboxStatusPending}

	msg.IncrementAttempts()
	msg.IncrementAttempts()
	assert.Equal(t, 2, msg.Attempts)
	require.NotNil(t, msg.LastAttemptAt)
	assert.WithinDuration(t, time.Now().UTC(), *msg.LastAttemptAt, time.Second)
	assert.False(t, msg.Exhausted(3))

	msg.IncrementAttempts()
	assert.True(t, msg.Exhausted(3))

	msg.MarkAsFailed()
	assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)

	msg.MarkAsProcessed()
	assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
}

func TestMessage_LedgerEntryBadPayload(t *testing.T) {
	msg := &Message{Payload: []byte(`{"amount":`)}
	_, err := msg.LedgerEntry()
	assert.Error(t, err)
}
