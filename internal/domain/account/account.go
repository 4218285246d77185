package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrInvalidPhone      = errors.New("phone number must be exactly 10 digits")
	ErrInvalidRole       = errors.New("role must be one of user, agent, admin")
)

// Role decides which operations an account may start or receive
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent || r == RoleAdmin
}

// Initial balances granted at registration
var (
	UserOpeningBalance  = decimal.NewFromInt(40)
	AgentOpeningBalance = decimal.NewFromInt(100000)
)

// Account is one party able to hold and move funds.
// Income is meaningful for agents only, TotalMoney for the admin only.
type Account struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	SecretHash string          `json:"-"`
	Role       Role            `json:"role"`
	Balance    decimal.Decimal `json:"balance"`
	Income     decimal.Decimal `json:"income"`
	TotalMoney decimal.Decimal `json:"total_money"`
	IsVerified bool            `json:"is_verified"`
	IsBlocked  bool            `json:"is_blocked"`
	Version    int             `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Summary is the public view of an account embedded in ledger entries
type Summary struct {
	ID    uuid.UUID `json:"id" bson:"id"`
	Name  string    `json:"name" bson:"name"`
	Role  Role      `json:"role" bson:"role"`
	Phone string    `json:"phone" bson:"phone"`
}

// NewAccount registers a party with its role-dependent opening state:
// users start verified with 40, agents start unverified with 100000,
// the admin starts verified and empty.
func NewAccount(name, email, phone string, role Role, secretHash string) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if !ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	now := time.Now().UTC()
	acc := &Account{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Phone:      phone,
		SecretHash: secretHash,
		Role:       role,
		Balance:    decimal.Zero,
		Income:     decimal.Zero,
		TotalMoney: decimal.Zero,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	switch role {
	case RoleUser:
		acc.Balance = UserOpeningBalance
		acc.IsVerified = true
	case RoleAgent:
		acc.Balance = AgentOpeningBalance
	case RoleAdmin:
		acc.IsVerified = true
	}

	return acc, nil
}

// ValidPhone reports whether s is exactly ten ASCII digits
func ValidPhone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Credit adds a strictly positive amount to the balance
func (a *Account) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Debit removes a strictly positive amount, refusing to go below zero
func (a *Account) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !a.Covers(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Covers reports whether the balance is at least amount
func (a *Account) Covers(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// AddIncome records agent earnings
func (a *Account) AddIncome(amount decimal.Decimal) {
	a.Income = a.Income.Add(amount)
	a.UpdatedAt = time.Now().UTC()
}

// AdjustTotalMoney moves the admin's float metric by delta, which may be negative
func (a *Account) AdjustTotalMoney(delta decimal.Decimal) {
	a.TotalMoney = a.TotalMoney.Add(delta)
	a.UpdatedAt = time.Now().UTC()
}

// Eligible reports whether the account may take part in money movements
func (a *Account) Eligible() bool {
	return a.IsVerified && !a.IsBlocked
}

func (a *Account) Summary() *Summary {
	return &Summary{ID: a.ID, Name: a.Name, Role: a.Role, Phone: a.Phone}
}

// Clone returns an independent copy
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
