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
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

// TransactionHandler handles HTTP requests for money movements and ledger reads
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Deposit moves e-money from the calling agent to a user
func (h *TransactionHandler) Deposit(c *gin.Context) {
	h.execute(c, shared.TransactionTypeDeposit)
}

// Transfer moves funds from the calling user to another user
func (h *TransactionHandler) Transfer(c *gin.Context) {
	h.execute(c, shared.TransactionTypeTransfer)
}

// Withdraw cashes out the calling user's funds through an agent
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	h.execute(c, shared.TransactionTypeWithdraw)
}

func (h *TransactionHandler) execute(c *gin.Context, t shared.TransactionType) {
	callerID, _, ok := middleware.GetCaller(c)
	if !ok {
		RespondWithServiceError(c, errMissingCaller)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		RespondBadRequest(c, "Unreadable request body")
		return
	}

	cmd, err := ledger.DecodeCommand(t, callerID, middleware.GetCorrelationID(c), body)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	entry, err := h.transactionService.Execute(c.Request.Context(), cmd)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

// GetByID returns one entry the caller took part in
func (h *TransactionHandler) GetByID(c *gin.Context) {
	callerID, role, ok := middleware.GetCaller(c)
	if !ok {
		RespondWithServiceError(c, errMissingCaller)
		return
	}

	entry, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("transactionId"),
		service.Caller{AccountID: callerID, Role: role})
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// History pages through the caller's own transactions, newest first
func (h *TransactionHandler) History(c *gin.Context) {
	callerID, _, ok := middleware.GetCaller(c)
	if !ok {
		RespondWithServiceError(c, errMissingCaller)
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.transactionService.History(c.Request.Context(), callerID, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	history := make([]HistoryResponse, 0, len(records))
	for _, record := range records {
		history = append(history, mapHistoryToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, history, pagination.Page, pagination.PerPage, int(total))
}

// Statement pages through the ledger entries of any account for the admin
func (h *TransactionHandler) Statement(c *gin.Context) {
	idParam := c.Param("id")
	accountID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.transactionService.Statement(c.Request.Context(), accountID, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}

	statement := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		statement = append(statement, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, statement, pagination.Page, pagination.PerPage, int(total))
}

// mapEntryToResponse maps a ledger entry to an entry response DTO
func mapEntryToResponse(entry *ledger.Entry) EntryResponse {
	return EntryResponse{
		TransactionID: entry.TransactionID,
		Type:          string(entry.Type),
		Amount:        entry.Amount.StringFixed(2),
		Fee:           entry.Fee.StringFixed(2),
		AgentIncome:   entry.AgentIncome.StringFixed(2),
		AdminIncome:   entry.AdminIncome.StringFixed(2),
		Source:        mapParty(entry.Source),
		Counterparty:  mapParty(entry.Counterparty),
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}
}

func mapHistoryToResponse(record *ledger.HistoryRecord) HistoryResponse {
	response := HistoryResponse{
		TransactionID: record.TransactionID,
		Side:          string(record.Side),
		Type:          string(record.Type),
		Amount:        record.Amount.StringFixed(2),
		Fee:           record.Fee.StringFixed(2),
		Delta:         record.Delta.StringFixed(2),
		Counterparty:  mapParty(record.Counterparty),
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}
	if !record.Income.IsZero() {
		response.Income = record.Income.StringFixed(2)
	}
	return response
}

func mapParty(s *account.Summary) *PartyResponse {
	if s == nil {
		return nil
	}
	return &PartyResponse{
		ID:    s.ID.String(),
		Name:  s.Name,
		Role:  string(s.Role),
		Phone: s.Phone,
	}
}
