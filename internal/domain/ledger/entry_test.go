package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	src := &account.Account{ID: uuid.New(), Name: "A", Phone: "0171234567", Role: account.RoleUser, SecretHash: "h"}
	dst := &account.Account{ID: uuid.New(), Name: "B", Phone: "0181234567", Role: account.RoleUser}

	e := NewEntry(shared.TransactionTypeTransfer, decimal.NewFromInt(150), decimal.NewFromInt(5), decimal.Zero, decimal.NewFromInt(5), src, dst, "corr")

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.True(t, ValidTransactionID(e.TransactionID), e.TransactionID)
	assert.Equal(t, src.ID, e.SourceID)
	assert.Equal(t, dst.ID, e.CounterpartyID)
	require.NotNil(t, e.Source)
	assert.Equal(t, "0171234567", e.Source.Phone)
	assert.Equal(t, "corr", e.CorrelationID)
	assert.WithinDuration(t, time.Now().UTC(), e.CreatedAt, time.Second)

	assert.True(t, e.Involves(src.ID))
	assert.True(t, e.Involves(dst.ID))
	assert.False(t, e.Involves(uuid.New()))
}

func TestNewTransactionID(t *testing.T) {
	at := time.Date(2026, 3, 14, 23, 59, 0, 0, time.FixedZone("X", 5*3600))
	id := NewTransactionID(at)

	assert.Len(t, id, len("TXN-20260314-")+16)
	assert.Equal(t, "TXN-20260314-", id[:13])
	assert.True(t, ValidTransactionID(id))

	seen := make(map[string]struct{}, 50000)
	for i := 0; i < 50000; i++ {
		id := NewTransactionID(at)
		_, dup := seen[id]
		require.False(t, dup, "duplicate transaction id %s", id)
		seen[id] = struct{}{}
	}
}

func TestValidTransactionID(t *testing.T) {
	assert.False(t, ValidTransactionID(""))
	assert.False(t, ValidTransactionID("TXN-2026-ABCDEF0123456789"))
	assert.False(t, ValidTransactionID("TX-20260314-ABCDEF0123456789"))
	assert.False(t, ValidTransactionID("TXN-20260314-abcdef0123456789"))
	assert.False(t, ValidTransactionID("TXN-20260314-ABCDEF012345678Z"))
	assert.True(t, ValidTransactionID("TXN-20260314-ABCDEF0123456789"))
}
