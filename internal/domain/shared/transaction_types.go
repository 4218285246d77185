package shared

// TransactionType is the operation tag carried by every command and ledger entry
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

// Valid reports whether t is one of the three supported operations
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransfer, TransactionTypeWithdraw:
		return true
	}
	return false
}

// FailureReason is the machine-readable cause attached to an Error
type FailureReason string

const (
	FailureReasonAdminMissing            FailureReason = "ADMIN_ACCOUNT_MISSING"
	FailureReasonSourceNotFound          FailureReason = "SOURCE_NOT_FOUND"
	FailureReasonCounterpartyNotFound    FailureReason = "COUNTERPARTY_NOT_FOUND"
	FailureReasonInvalidSecret           FailureReason = "INVALID_SECRET"
	FailureReasonSourceNotVerified       FailureReason = "SOURCE_NOT_VERIFIED"
	FailureReasonSourceBlocked           FailureReason = "SOURCE_BLOCKED"
	FailureReasonSourceWrongRole         FailureReason = "SOURCE_WRONG_ROLE"
	FailureReasonCounterpartyNotVerified FailureReason = "COUNTERPARTY_NOT_VERIFIED"
	FailureReasonCounterpartyBlocked     FailureReason = "COUNTERPARTY_BLOCKED"
	FailureReasonCounterpartyWrongRole   FailureReason = "COUNTERPARTY_WRONG_ROLE"
	FailureReasonSelfDealing             FailureReason = "SELF_DEALING"
	FailureReasonAgentCannotCover        FailureReason = "AGENT_CANNOT_COVER"
	FailureReasonInsufficientFunds       FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonAmountBelowMinimum      FailureReason = "AMOUNT_BELOW_MINIMUM"
	FailureReasonInvalidTransactionType  FailureReason = "INVALID_TRANSACTION_TYPE"
	FailureReasonInvalidRequest          FailureReason = "INVALID_REQUEST"
	FailureReasonConcurrentModification  FailureReason = "CONCURRENT_MODIFICATION"
	FailureReasonTransactionTimeout      FailureReason = "TRANSACTION_TIMEOUT"
	FailureReasonStoreFailure            FailureReason = "STORE_FAILURE"
	FailureReasonCommitFailed            FailureReason = "TRANSACTION_COMMIT_FAILED"

	// Gateway reasons
	FailureReasonInvalidToken         FailureReason = "INVALID_TOKEN"
	FailureReasonInvalidCredentials   FailureReason = "INVALID_CREDENTIALS"
	FailureReasonAccountBlocked       FailureReason = "ACCOUNT_BLOCKED"
	FailureReasonAccountNotVerified   FailureReason = "ACCOUNT_NOT_VERIFIED"
	FailureReasonRoleNotAllowed       FailureReason = "ROLE_NOT_ALLOWED"
	FailureReasonAccountNotFound      FailureReason = "ACCOUNT_NOT_FOUND"
	FailureReasonDuplicateAccount     FailureReason = "DUPLICATE_ACCOUNT"
	FailureReasonAdminExists          FailureReason = "ADMIN_ALREADY_EXISTS"
	FailureReasonTransactionNotFound  FailureReason = "TRANSACTION_NOT_FOUND"
	FailureReasonIdempotencyKeyReused FailureReason = "IDEMPOTENCY_KEY_REUSED"
	FailureReasonRequestInProgress    FailureReason = "REQUEST_IN_PROGRESS"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
