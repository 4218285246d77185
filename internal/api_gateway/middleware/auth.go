package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/api_gateway/auth"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

const (
	// AccountIDKey and RoleKey hold the authenticated caller in the gin context
	AccountIDKey = "account_id"
	RoleKey      = "role"
)

// TokenValidator checks a bearer token
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AccountLookup loads the caller's current account state
type AccountLookup interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// Authenticate resolves the bearer token to a live account. The account is
// reloaded on every request so blocking takes effect before the token expires.
// Blocked accounts are refused first, then unverified ones.
func Authenticate(tokens TokenValidator, accounts AccountLookup, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortWithError(c, shared.NewError(shared.KindUnauthorized, shared.FailureReasonInvalidToken, "missing bearer token"))
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("Rejected bearer token", "error", err, "correlation_id", GetCorrelationID(c))
			abortWithError(c, shared.NewError(shared.KindUnauthorized, shared.FailureReasonInvalidToken, "invalid or expired token"))
			return
		}

		acc, err := accounts.GetAccount(c.Request.Context(), claims.AccountID)
		if err != nil {
			serr := shared.AsError(err)
			if serr.Kind == shared.KindNotFound {
				serr = shared.NewError(shared.KindUnauthorized, shared.FailureReasonInvalidToken, "account no longer exists")
			}
			abortWithError(c, serr)
			return
		}

		switch {
		case acc.IsBlocked:
			abortWithError(c, shared.NewError(shared.KindForbidden, shared.FailureReasonAccountBlocked, "account is blocked"))
			return
		case !acc.IsVerified:
			abortWithError(c, shared.NewError(shared.KindForbidden, shared.FailureReasonAccountNotVerified, "account is awaiting approval"))
			return
		}

		c.Set(AccountIDKey, acc.ID)
		c.Set(RoleKey, acc.Role)
		c.Next()
	}
}

// RequireRoles admits only callers whose current role is listed
func RequireRoles(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, shared.NewError(shared.KindForbidden, shared.FailureReasonRoleNotAllowed, "role not allowed for this operation"))
	}
}

// GetCaller returns the authenticated account id and role
func GetCaller(c *gin.Context) (uuid.UUID, account.Role, bool) {
	id, ok := c.Get(AccountIDKey)
	if !ok {
		return uuid.Nil, "", false
	}
	accountID, ok := id.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, _ := c.Get(RoleKey)
	r, _ := role.(account.Role)
	return accountID, r, true
}
