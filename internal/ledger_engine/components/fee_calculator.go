package components

import (
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/mobile-money-ledger/internal/ledger_engine/service"
	"github.com/shopspring/decimal"
)

var (
	transferFeeThreshold = decimal.NewFromInt(100)
	transferFlatFee      = decimal.NewFromInt(5)

	withdrawFeeRate   = decimal.RequireFromString("0.015")
	withdrawAgentRate = decimal.RequireFromString("0.01")
	withdrawAdminRate = decimal.RequireFromString("0.005")

	minimumAmount = map[shared.TransactionType]decimal.Decimal{
		shared.TransactionTypeDeposit:  decimal.NewFromInt(1),
		shared.TransactionTypeTransfer: decimal.NewFromInt(50),
		shared.TransactionTypeWithdraw: decimal.NewFromInt(1),
	}
)

// amountPlaces is the precision accepted for a principal. Withdraw fees on such
// an amount are exact at 5 places, which the NUMERIC(20, 5) columns hold.
const amountPlaces = 2

type FeeCalculatorImpl struct{}

func NewFeeCalculator() service.FeeCalculator {
	return FeeCalculatorImpl{}
}

// Compute derives the fee from the principal alone.
// Transfers of 100 or more pay a flat 5 to the admin. Withdrawals pay 1.5%:
// 1% to the agent and 0.5% to the admin, without rounding.
func (FeeCalculatorImpl) Compute(t shared.TransactionType, amount decimal.Decimal) (service.Fee, error) {
	minimum, ok := minimumAmount[t]
	if !ok {
		return service.Fee{}, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidTransactionType,
			"unknown transaction type "+string(t))
	}
	if !amount.Equal(amount.Truncate(amountPlaces)) {
		return service.Fee{}, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest,
			"amount must have at most 2 decimal places")
	}
	if amount.LessThan(minimum) {
		return service.Fee{}, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonAmountBelowMinimum,
			"amount must be at least "+minimum.String()+" for "+string(t))
	}

	switch t {
	case shared.TransactionTypeTransfer:
		if amount.GreaterThanOrEqual(transferFeeThreshold) {
			return service.Fee{Total: transferFlatFee, AgentIncome: decimal.Zero, AdminIncome: transferFlatFee}, nil
		}
		return zeroFee(), nil

	case shared.TransactionTypeWithdraw:
		return service.Fee{
			Total:       amount.Mul(withdrawFeeRate),
			AgentIncome: amount.Mul(withdrawAgentRate),
			AdminIncome: amount.Mul(withdrawAdminRate),
		}, nil
	}

	return zeroFee(), nil
}

func zeroFee() service.Fee {
	return service.Fee{Total: decimal.Zero, AgentIncome: decimal.Zero, AdminIncome: decimal.Zero}
}
