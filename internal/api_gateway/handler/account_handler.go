package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/api_gateway/middleware"
	"github.com/mobile-money-ledger/internal/api_gateway/service"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

var errMissingCaller = shared.NewError(shared.KindUnauthorized, shared.FailureReasonInvalidToken, "missing caller")

// AccountHandler handles HTTP requests for registration, login and moderation
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Register opens a user, agent or the admin account
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err, "correlation_id", middleware.GetCorrelationID(c))
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.Register(c.Request.Context(), service.RegisterRequest{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Secret: req.Secret,
		Role:   account.Role(req.Role),
	})
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// Login exchanges phone and secret for a session token
func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.accountService.Login(c.Request.Context(), req.Phone, req.Secret)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	RespondOK(c, SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		Account:   mapAccountToResponse(session.Account),
	})
}

// Me returns the caller's own account
func (h *AccountHandler) Me(c *gin.Context) {
	callerID, _, ok := middleware.GetCaller(c)
	if !ok {
		RespondWithServiceError(c, errMissingCaller)
		return
	}
	h.respondAccount(c, callerID)
}

// GetByID returns any account to the admin
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := h.parseAccountID(c)
	if !ok {
		return
	}
	h.respondAccount(c, id)
}

// PendingApprovals lists agents waiting for approval
func (h *AccountHandler) PendingApprovals(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	pending, total, err := h.accountService.PendingApprovals(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	accounts := make([]AccountResponse, 0, len(pending))
	for _, acc := range pending {
		accounts = append(accounts, mapAccountToResponse(acc))
	}

	RespondWithPaginatedData(c, http.StatusOK, accounts, pagination.Page, pagination.PerPage, int(total))
}

// Approve verifies a pending agent
func (h *AccountHandler) Approve(c *gin.Context) {
	id, ok := h.parseAccountID(c)
	if !ok {
		return
	}

	acc, err := h.accountService.Approve(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}
	h.logger.Info("Account approved", "account_id", id, "correlation_id", middleware.GetCorrelationID(c))
	RespondOK(c, mapAccountToResponse(acc))
}

// Block sets or clears the blocked flag of an account
func (h *AccountHandler) Block(c *gin.Context) {
	id, ok := h.parseAccountID(c)
	if !ok {
		return
	}

	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.SetBlocked(c.Request.Context(), id, *req.IsBlocked)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}
	h.logger.Info("Account block flag set", "account_id", id, "is_blocked", *req.IsBlocked,
		"correlation_id", middleware.GetCorrelationID(c))
	RespondOK(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) respondAccount(c *gin.Context, id uuid.UUID) {
	acc, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) parseAccountID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return uuid.Nil, false
	}
	return id, true
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		ID:         acc.ID.String(),
		Name:       acc.Name,
		Email:      acc.Email,
		Phone:      acc.Phone,
		Role:       string(acc.Role),
		Balance:    acc.Balance.StringFixed(2),
		IsVerified: acc.IsVerified,
		IsBlocked:  acc.IsBlocked,
		CreatedAt:  acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  acc.UpdatedAt.Format(time.RFC3339),
	}

	switch acc.Role {
	case account.RoleAgent:
		response.Income = acc.Income.StringFixed(2)
	case account.RoleAdmin:
		response.TotalMoney = acc.TotalMoney.StringFixed(2)
	}
	return response
}
