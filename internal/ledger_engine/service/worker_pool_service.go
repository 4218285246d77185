package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolEngine bounds how many engine invocations run at once. Callers
// beyond the pool size wait for a free slot until their context ends, so the
// number of open database transactions never exceeds the pool size.
type WorkerPoolEngine struct {
	base   Engine
	pool   *ants.Pool
	slots  chan struct{}
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

type result struct {
	entry *ledger.Entry
	err   error
}

func NewWorkerPoolEngine(base Engine, config WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolEngine, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolEngine{
		base:   base,
		pool:   pool,
		slots:  make(chan struct{}, config.Size),
		logger: logger,
	}, nil
}

func (s *WorkerPoolEngine) Deposit(ctx context.Context, cmd ledger.DepositCommand) (*ledger.Entry, error) {
	return s.Execute(ctx, cmd)
}

func (s *WorkerPoolEngine) Transfer(ctx context.Context, cmd ledger.TransferCommand) (*ledger.Entry, error) {
	return s.Execute(ctx, cmd)
}

func (s *WorkerPoolEngine) Withdraw(ctx context.Context, cmd ledger.WithdrawCommand) (*ledger.Entry, error) {
	return s.Execute(ctx, cmd)
}

// Execute submits cmd to the pool and waits for its outcome. Once a command
// has started it runs to completion, since its commit may already be under way.
func (s *WorkerPoolEngine) Execute(ctx context.Context, cmd ledger.Command) (*ledger.Entry, error) {
	logger := s.logger
	if cmd != nil && cmd.Params().CorrelationID != "" {
		logger = logger.With("correlation_id", cmd.Params().CorrelationID)
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		logger.Warn("Ledger command abandoned while waiting for a worker", "error", ctx.Err())
		return nil, errWaitAbandoned(ctx.Err())
	}

	done := make(chan result, 1)
	err := s.pool.Submit(func() {
		defer func() { <-s.slots }()
		if ctx.Err() != nil {
			done <- result{err: errWaitAbandoned(ctx.Err())}
			return
		}
		entry, err := s.base.Execute(ctx, cmd)
		done <- result{entry: entry, err: err}
	})
	if err != nil {
		<-s.slots
		logger.Error("Failed to submit ledger command to worker pool", "error", err)

		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "ledger engine is shutting down", err)
		}
		return nil, shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "ledger engine unavailable", err)
	}

	r := <-done
	return r.entry, r.err
}

func errWaitAbandoned(err error) error {
	return shared.WrapError(shared.KindConflict, shared.FailureReasonTransactionTimeout,
		"ledger engine busy, retry", err)
}

// Shutdown releases the pool. Running commands finish; later submissions fail.
func (s *WorkerPoolEngine) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolEngine) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolEngine) Capacity() int {
	return s.pool.Cap()
}
