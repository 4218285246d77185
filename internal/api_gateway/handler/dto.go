package handler

// RegisterRequest represents a request to open a new account
type RegisterRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Phone  string `json:"phone" binding:"required,len=10,numeric"`
	Secret string `json:"secret" binding:"required,len=5"`
	Role   string `json:"role" binding:"required,oneof=user agent admin"`
}

// LoginRequest represents a phone and secret login
type LoginRequest struct {
	Phone  string `json:"phone" binding:"required,len=10,numeric"`
	Secret string `json:"secret" binding:"required,len=5"`
}

// BlockRequest toggles the blocked flag of an account
type BlockRequest struct {
	IsBlocked *bool `json:"is_blocked" binding:"required"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Balance    string `json:"balance"`
	Income     string `json:"income,omitempty"`
	TotalMoney string `json:"total_money,omitempty"`
	IsVerified bool   `json:"is_verified"`
	IsBlocked  bool   `json:"is_blocked"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// SessionResponse is returned by a successful login
type SessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

// PartyResponse is the public view of a participant in an entry
type PartyResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

// EntryResponse represents a committed ledger entry in API responses
type EntryResponse struct {
	TransactionID string         `json:"transaction_id"`
	Type          string         `json:"type"`
	Amount        string         `json:"amount"`
	Fee           string         `json:"fee"`
	AgentIncome   string         `json:"agent_income"`
	AdminIncome   string         `json:"admin_income"`
	Source        *PartyResponse `json:"source,omitempty"`
	Counterparty  *PartyResponse `json:"counterparty,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

// HistoryResponse is one line of the caller's own transaction history
type HistoryResponse struct {
	TransactionID string         `json:"transaction_id"`
	Side          string         `json:"side"`
	Type          string         `json:"type"`
	Amount        string         `json:"amount"`
	Fee           string         `json:"fee"`
	Delta         string         `json:"delta"`
	Income        string         `json:"income,omitempty"`
	Counterparty  *PartyResponse `json:"counterparty,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
