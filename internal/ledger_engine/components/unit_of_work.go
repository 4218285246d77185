package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/mobile-money-ledger/internal/ledger_engine/service"
	"github.com/mobile-money-ledger/internal/platform/persistence"
)

// SQLSTATE codes that mean another transaction won a race
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

type UnitOfWorkImpl struct {
	db          *persistence.PostgresDB
	txTimeout   time.Duration
	lockTimeout time.Duration
	logger      *slog.Logger
}

func NewUnitOfWork(db *persistence.PostgresDB, txTimeout, lockTimeout time.Duration, logger *slog.Logger) service.UnitOfWork {
	return &UnitOfWorkImpl{
		db:          db,
		txTimeout:   txTimeout,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// Run executes fn in a read-committed transaction bounded by the configured
// timeout. The returned error is always a *shared.Error.
func (u *UnitOfWorkImpl) Run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, u.txTimeout)
	defer cancel()

	err := u.db.ExecuteTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		return fn(ctx, tx)
	})
	if err == nil {
		return nil
	}

	classified := classify(ctx, err)
	if classified.Kind == shared.KindInternal {
		u.logger.Error("Unit of work failed", "reason", classified.Reason, "error", err)
	}
	return classified
}

func classify(ctx context.Context, err error) *shared.Error {
	var commitErr *persistence.CommitError
	if errors.As(err, &commitErr) {
		if isDeadline(ctx, commitErr.Err) {
			return shared.WrapError(shared.KindConflict, shared.FailureReasonTransactionTimeout,
				"transaction timed out, retry", err)
		}
		if isContention(commitErr.Err) {
			return shared.WrapError(shared.KindConflict, shared.FailureReasonConcurrentModification,
				"transaction conflicted with a concurrent update, retry", err)
		}
		return shared.WrapError(shared.KindInternal, shared.FailureReasonCommitFailed, "failed to commit transaction", err)
	}

	var serr *shared.Error
	if errors.As(err, &serr) {
		return serr
	}

	switch {
	case isContention(err):
		return shared.WrapError(shared.KindConflict, shared.FailureReasonConcurrentModification,
			"transaction conflicted with a concurrent update, retry", err)
	case errors.As(err, new(account.ErrConcurrentModification)):
		return shared.WrapError(shared.KindConflict, shared.FailureReasonConcurrentModification,
			"account changed during the operation, retry", err)
	case isDeadline(ctx, err):
		return shared.WrapError(shared.KindConflict, shared.FailureReasonTransactionTimeout,
			"transaction timed out, retry", err)
	}

	return shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "internal ledger failure", err)
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func isContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}
