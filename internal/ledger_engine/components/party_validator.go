package components

import (
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/mobile-money-ledger/internal/ledger_engine/service"
)

type roles struct {
	source       account.Role
	counterparty account.Role
}

var operationRoles = map[shared.TransactionType]roles{
	shared.TransactionTypeDeposit:  {source: account.RoleAgent, counterparty: account.RoleUser},
	shared.TransactionTypeTransfer: {source: account.RoleUser, counterparty: account.RoleUser},
	shared.TransactionTypeWithdraw: {source: account.RoleUser, counterparty: account.RoleAgent},
}

type PartyValidatorImpl struct{}

func NewPartyValidator() service.PartyValidator {
	return PartyValidatorImpl{}
}

// Validate checks the source, then the counterparty, each for verification,
// blocking and role, and finally that they are not the same phone number.
func (PartyValidatorImpl) Validate(t shared.TransactionType, source, counterparty *account.Account) error {
	want, ok := operationRoles[t]
	if !ok {
		return shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidTransactionType,
			"unknown transaction type "+string(t))
	}

	switch {
	case !source.IsVerified:
		return forbidden(shared.FailureReasonSourceNotVerified, "your account is not verified")
	case source.IsBlocked:
		return forbidden(shared.FailureReasonSourceBlocked, "your account is blocked")
	case source.Role != want.source:
		return forbidden(shared.FailureReasonSourceWrongRole, "only a "+string(want.source)+" can "+string(t))
	case !counterparty.IsVerified:
		return forbidden(shared.FailureReasonCounterpartyNotVerified, "the "+string(want.counterparty)+" is not verified")
	case counterparty.IsBlocked:
		return forbidden(shared.FailureReasonCounterpartyBlocked, "the "+string(want.counterparty)+" is blocked")
	case counterparty.Role != want.counterparty:
		return forbidden(shared.FailureReasonCounterpartyWrongRole, "the counterparty must be a "+string(want.counterparty))
	case source.Phone == counterparty.Phone:
		return forbidden(shared.FailureReasonSelfDealing, "cannot "+string(t)+" to your own account")
	}
	return nil
}

func forbidden(reason shared.FailureReason, msg string) error {
	return shared.NewError(shared.KindForbidden, reason, msg)
}
