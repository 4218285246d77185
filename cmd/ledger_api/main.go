package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mobile-money-ledger/internal/api_gateway"
	"github.com/mobile-money-ledger/internal/api_gateway/auth"
	"github.com/mobile-money-ledger/internal/api_gateway/service"
	"github.com/mobile-money-ledger/internal/config"
	"github.com/mobile-money-ledger/internal/data/mongo"
	"github.com/mobile-money-ledger/internal/data/postgres"
	"github.com/mobile-money-ledger/internal/data/redis"
	"github.com/mobile-money-ledger/internal/ledger_engine/components"
	"github.com/mobile-money-ledger/internal/logger"
	"github.com/mobile-money-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize stores; PostgreSQL migrations run before the pool opens
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedis(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())
	idempotencyStore := redis.NewIdempotencyStore(redisClient.Client(), cfg.Redis.IdempotencyTTL, cfg.Redis.LockExpiry,
		log.With("component", "idempotency"))

	// Initialize the ledger engine behind its worker pool
	secrets := components.NewSecretVerifier(cfg.Auth.BcryptCost)
	engine, shutdownEngine := components.CreateEngine(postgresDB, accountRepo, ledgerRepo, outboxRepo, secrets, log, cfg)

	// Initialize services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	registrationUoW := components.NewUnitOfWork(postgresDB, cfg.Ledger.TxTimeout, cfg.Ledger.LockTimeout,
		log.With("component", "unit_of_work"))
	accountService := service.NewAccountService(log, registrationUoW, accountRepo, secrets, tokens)
	transactionService := service.NewTransactionService(log, engine, ledgerRepo, historyRepo)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, api_gateway.Dependencies{
		AccountService:     accountService,
		TransactionService: transactionService,
		Tokens:             tokens,
		Idempotency:        idempotencyStore,
	})
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence: stop taking requests, drain the engine, then close stores
	log.Info("Starting graceful shutdown...")

	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	shutdownEngine()

	postgresDB.Close()

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
		shutdownErr = err
	}

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
