package components

import (
	"log/slog"

	"github.com/mobile-money-ledger/internal/config"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/outbox"
	"github.com/mobile-money-ledger/internal/ledger_engine/service"
	"github.com/mobile-money-ledger/internal/platform/persistence"
)

// CreateEngine wires the ledger engine with all its dependencies behind a worker pool.
// The returned function releases the pool.
func CreateEngine(
	pgDB *persistence.PostgresDB,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	outboxRepo outbox.Repository,
	secrets service.SecretVerifier,
	logger *slog.Logger,
	cfg *config.Config,
) (service.Engine, func()) {
	baseEngine := service.NewLedgerEngine(
		NewUnitOfWork(pgDB, cfg.Ledger.TxTimeout, cfg.Ledger.LockTimeout, logger.With("component", "unit_of_work")),
		NewAccountManager(accountRepo, logger),
		NewEntryRecorder(ledgerRepo, outboxRepo, logger),
		secrets,
		NewPartyValidator(),
		NewFeeCalculator(),
		logger.With("component", "ledger_engine"),
	)

	workerPoolEngine, err := service.NewWorkerPoolEngine(
		baseEngine,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool engine, falling back to base engine", "error", err)
		return baseEngine, func() {}
	}

	logger.Info("Created worker pool ledger engine", "pool_size", cfg.WorkerPool.Size)
	return workerPoolEngine, workerPoolEngine.Shutdown
}
