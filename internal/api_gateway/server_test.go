package api_gateway

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/api_gateway/auth"
	"github.com/mobile-money-ledger/internal/api_gateway/service"
	"github.com/mobile-money-ledger/internal/config"
	"github.com/mobile-money-ledger/internal/data/redis"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccounts struct {
	service.AccountService
	accounts map[uuid.UUID]*account.Account
}

func (s *stubAccounts) GetAccount(_ context.Context, id uuid.UUID) (*account.Account, error) {
	if acc, ok := s.accounts[id]; ok {
		return acc, nil
	}
	return nil, shared.NewError(shared.KindNotFound, shared.FailureReasonAccountNotFound, "account not found")
}

type stubTransactions struct {
	service.TransactionService
	executed int
}

func (s *stubTransactions) Execute(_ context.Context, cmd ledger.Command) (*ledger.Entry, error) {
	s.executed++
	src := &account.Account{ID: cmd.Params().SourceID, Role: account.RoleAgent}
	dst := &account.Account{ID: uuid.New(), Role: account.RoleUser, Phone: cmd.Params().CounterpartyPhone}
	return ledger.NewEntry(cmd.Type(), cmd.Params().Amount, decimal.Zero, decimal.Zero, decimal.Zero, src, dst, cmd.Params().CorrelationID), nil
}

func newTestServer(t *testing.T) (*Server, *auth.TokenManager, *stubTransactions, map[account.Role]*account.Account) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mr := miniredis.RunT(t)
	client := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	parties := map[account.Role]*account.Account{
		account.RoleUser:  {ID: uuid.New(), Role: account.RoleUser, IsVerified: true},
		account.RoleAgent: {ID: uuid.New(), Role: account.RoleAgent, IsVerified: true},
		account.RoleAdmin: {ID: uuid.New(), Role: account.RoleAdmin, IsVerified: true},
	}
	accounts := &stubAccounts{accounts: map[uuid.UUID]*account.Account{}}
	for _, acc := range parties {
		accounts.accounts[acc.ID] = acc
	}

	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	transactions := &stubTransactions{}

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second

	server := NewServer(logger, cfg, Dependencies{
		AccountService:     accounts,
		TransactionService: transactions,
		Tokens:             tokens,
		Idempotency:        redis.NewIdempotencyStore(client, time.Hour, 5*time.Second, logger),
	})
	return server, tokens, transactions, parties
}

func bearer(t *testing.T, tokens *auth.TokenManager, acc *account.Account) string {
	t.Helper()
	token, _, err := tokens.Issue(acc)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_Health(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
}

func TestRouter_MoneyRouteGates(t *testing.T) {
	server, tokens, transactions, parties := newTestServer(t)
	body := `{"recipient_phone":"0171234567","amount":"100","secret":"12345"}`

	tests := []struct {
		name       string
		auth       string
		key        string
		wantStatus int
	}{
		{"no token", "", "k1", http.StatusUnauthorized},
		{"user cannot deposit", bearer(t, tokens, parties[account.RoleUser]), "k1", http.StatusForbidden},
		{"admin cannot deposit", bearer(t, tokens, parties[account.RoleAdmin]), "k1", http.StatusForbidden},
		{"agent without key", bearer(t, tokens, parties[account.RoleAgent]), "", http.StatusBadRequest},
		{"agent with key", bearer(t, tokens, parties[account.RoleAgent]), "k1", http.StatusCreated},
		{"agent replay", bearer(t, tokens, parties[account.RoleAgent]), "k1", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", bytes.NewBufferString(body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			if tt.key != "" {
				req.Header.Set("Idempotency-Key", tt.key)
			}
			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	assert.Equal(t, 1, transactions.executed)
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	server, tokens, _, parties := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/accounts/"+parties[account.RoleUser].ID.String(), nil)
	req.Header.Set("Authorization", bearer(t, tokens, parties[account.RoleAgent]))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/approval-requests", nil)
	req.Header.Set("Authorization", bearer(t, tokens, parties[account.RoleUser]))
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/accounts/"+parties[account.RoleUser].ID.String(), nil)
	req.Header.Set("Authorization", bearer(t, tokens, parties[account.RoleAdmin]))
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
