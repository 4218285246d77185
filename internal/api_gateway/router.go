package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobile-money-ledger/internal/api_gateway/handler"
	"github.com/mobile-money-ledger/internal/api_gateway/middleware"
	"github.com/mobile-money-ledger/internal/domain/account"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	deps Dependencies,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	authenticate := middleware.Authenticate(deps.Tokens, deps.AccountService, logger)
	idempotent := middleware.Idempotency(deps.Idempotency, logger)

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", accountHandler.Login)

		// Account operations
		v1.POST("/accounts", accountHandler.Register)
		me := v1.Group("/accounts/me", authenticate)
		{
			me.GET("", accountHandler.Me)
			me.GET("/transactions", transactionHandler.History)
		}

		// Money movements and entry lookup
		transactions := v1.Group("/transactions", authenticate)
		{
			transactions.POST("/deposit", middleware.RequireRoles(account.RoleAgent), idempotent, transactionHandler.Deposit)
			transactions.POST("/transfer", middleware.RequireRoles(account.RoleUser), idempotent, transactionHandler.Transfer)
			transactions.POST("/withdraw", middleware.RequireRoles(account.RoleUser), idempotent, transactionHandler.Withdraw)
			transactions.GET("/:transactionId", transactionHandler.GetByID)
		}

		admin := v1.Group("/admin", authenticate, middleware.RequireRoles(account.RoleAdmin))
		{
			admin.GET("/approval-requests", accountHandler.PendingApprovals)
			admin.GET("/accounts/:id", accountHandler.GetByID)
			admin.PATCH("/accounts/:id/approve", accountHandler.Approve)
			admin.PATCH("/accounts/:id/block", accountHandler.Block)
			admin.GET("/accounts/:id/ledger", transactionHandler.Statement)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
