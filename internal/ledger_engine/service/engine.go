package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

type LedgerEngine struct {
	uow       UnitOfWork
	accounts  AccountManager
	recorder  EntryRecorder
	secrets   SecretVerifier
	validator PartyValidator
	fees      FeeCalculator
	logger    *slog.Logger
}

func NewLedgerEngine(
	uow UnitOfWork,
	accounts AccountManager,
	recorder EntryRecorder,
	secrets SecretVerifier,
	validator PartyValidator,
	fees FeeCalculator,
	logger *slog.Logger,
) Engine {
	return &LedgerEngine{
		uow:       uow,
		accounts:  accounts,
		recorder:  recorder,
		secrets:   secrets,
		validator: validator,
		fees:      fees,
		logger:    logger,
	}
}

func (e *LedgerEngine) Deposit(ctx context.Context, cmd ledger.DepositCommand) (*ledger.Entry, error) {
	return e.Execute(ctx, cmd)
}

func (e *LedgerEngine) Transfer(ctx context.Context, cmd ledger.TransferCommand) (*ledger.Entry, error) {
	return e.Execute(ctx, cmd)
}

func (e *LedgerEngine) Withdraw(ctx context.Context, cmd ledger.WithdrawCommand) (*ledger.Entry, error) {
	return e.Execute(ctx, cmd)
}

// Execute runs one command as a single unit of work. Nothing it changes is
// visible unless the returned error is nil.
func (e *LedgerEngine) Execute(ctx context.Context, cmd ledger.Command) (*ledger.Entry, error) {
	if cmd == nil {
		return nil, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, "missing command")
	}
	if err := cmd.Validate(); err != nil {
		return nil, shared.AsError(err)
	}

	t := cmd.Type()
	p := cmd.Params()

	logger := e.logger.With("type", string(t), "account_id", p.SourceID.String())
	if p.CorrelationID != "" {
		logger = logger.With("correlation_id", p.CorrelationID)
	}

	var entry *ledger.Entry
	err := e.uow.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		entry, err = e.apply(ctx, tx, t, p)
		return err
	})
	if err != nil {
		serr := shared.AsError(err)
		switch serr.Kind {
		case shared.KindInternal:
			logger.Error("Ledger operation failed", "reason", serr.Reason, "error", serr)
		case shared.KindConflict:
			logger.Warn("Ledger operation aborted by contention", "reason", serr.Reason, "error", serr)
		default:
			logger.Warn("Ledger operation rejected", "kind", serr.Kind, "reason", serr.Reason)
		}
		return nil, serr
	}

	logger.Info("Ledger entry committed",
		"transaction_id", entry.TransactionID,
		"amount", entry.Amount.String(),
		"fee", entry.Fee.String(),
	)
	return entry, nil
}

// apply performs every check before the first mutation. Any error it returns
// aborts the surrounding unit of work.
func (e *LedgerEngine) apply(ctx context.Context, tx pgx.Tx, t shared.TransactionType, p ledger.Params) (*ledger.Entry, error) {
	admin, err := e.accounts.Admin(ctx, tx)
	if err != nil {
		return nil, err
	}
	source, err := e.accounts.Source(ctx, tx, p.SourceID)
	if err != nil {
		return nil, err
	}
	if err := e.secrets.Verify(source.SecretHash, p.Secret); err != nil {
		return nil, err
	}
	counterparty, err := e.accounts.Counterparty(ctx, tx, p.CounterpartyPhone)
	if err != nil {
		return nil, err
	}

	parties, err := e.accounts.Lock(ctx, tx, admin.ID, source.ID, counterparty.ID)
	if err != nil {
		return nil, err
	}

	// Eligibility is judged on the locked rows, not the snapshots read above.
	if err := e.validator.Validate(t, parties.Source, parties.Counterparty); err != nil {
		return nil, err
	}

	fee, err := e.fees.Compute(t, p.Amount)
	if err != nil {
		return nil, err
	}

	if err := mutate(t, parties, p, fee); err != nil {
		return nil, err
	}

	if err := e.accounts.Save(ctx, tx, parties); err != nil {
		return nil, err
	}

	entry := ledger.NewEntry(t, p.Amount, fee.Total, fee.AgentIncome, fee.AdminIncome,
		parties.Source, parties.Counterparty, p.CorrelationID)
	if err := e.recorder.Record(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func mutate(t shared.TransactionType, parties *Parties, p ledger.Params, fee Fee) error {
	admin, source, counterparty := parties.Admin, parties.Source, parties.Counterparty
	debit := p.Amount.Add(fee.Total)

	switch t {
	case shared.TransactionTypeDeposit:
		if !source.Covers(debit) {
			return insufficientFunds()
		}
		if err := source.Debit(debit); err != nil {
			return balanceError(err)
		}
		if err := counterparty.Credit(p.Amount); err != nil {
			return balanceError(err)
		}

	case shared.TransactionTypeTransfer:
		if !source.Covers(debit) {
			return insufficientFunds()
		}
		if err := source.Debit(debit); err != nil {
			return balanceError(err)
		}
		if err := counterparty.Credit(p.Amount); err != nil {
			return balanceError(err)
		}
		if fee.AdminIncome.IsPositive() {
			if err := admin.Credit(fee.AdminIncome); err != nil {
				return balanceError(err)
			}
		}

	case shared.TransactionTypeWithdraw:
		if !counterparty.Covers(p.Amount) {
			return shared.NewError(shared.KindForbidden, shared.FailureReasonAgentCannotCover,
				"agent cannot cover the withdrawal amount")
		}
		if !source.Covers(debit) {
			return insufficientFunds()
		}
		if err := source.Debit(debit); err != nil {
			return balanceError(err)
		}
		if err := counterparty.Debit(p.Amount); err != nil {
			return balanceError(err)
		}
		counterparty.AddIncome(fee.AgentIncome)
		if fee.AdminIncome.IsPositive() {
			if err := admin.Credit(fee.AdminIncome); err != nil {
				return balanceError(err)
			}
		}
		admin.AdjustTotalMoney(p.Amount.Neg())

	default:
		return shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidTransactionType,
			"unknown transaction type "+string(t))
	}
	return nil
}

func insufficientFunds() error {
	return shared.NewError(shared.KindInsufficientFunds, shared.FailureReasonInsufficientFunds,
		"insufficient balance to cover amount and fee")
}

// balanceError covers the case where a debit fails after its coverage check,
// which happens only when two roles share one account.
func balanceError(err error) error {
	if errors.Is(err, account.ErrInsufficientFunds) {
		return insufficientFunds()
	}
	return shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "failed to apply balance change", err)
}
