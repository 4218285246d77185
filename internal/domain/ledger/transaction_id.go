package ledger

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

const transactionIDPrefix = "TXN"

// NewTransactionID returns an identifier such as TXN-20260314-9F2C07AB13D4E6F0.
// The date keeps it readable for support staff; 64 random bits keep it unique,
// and the ledger_entries unique index rejects the astronomically rare repeat.
func NewTransactionID(at time.Time) string {
	id := uuid.New()
	var b strings.Builder
	b.Grow(len(transactionIDPrefix) + 26)
	b.WriteString(transactionIDPrefix)
	b.WriteByte('-')
	b.WriteString(at.UTC().Format("20060102"))
	b.WriteByte('-')
	b.WriteString(strings.ToUpper(hex.EncodeToString(id[:8])))
	return b.String()
}

// ValidTransactionID checks the shape produced by NewTransactionID
func ValidTransactionID(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != transactionIDPrefix {
		return false
	}
	if _, err := time.Parse("20060102", parts[1]); err != nil {
		return false
	}
	if len(parts[2]) != 16 {
		return false
	}
	_, err := hex.DecodeString(parts[2])
	return err == nil && strings.ToUpper(parts[2]) == parts[2]
}
