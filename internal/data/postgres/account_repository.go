// Package postgres holds the PostgreSQL account, ledger and outbox stores.
// Every repository can be rebound to a pgx.Tx with WithTx so that several
// stores take part in one unit of work.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/platform/persistence"
)

const pgUniqueViolation = "23505"

const accountColumns = `id, name, email, phone, secret_hash, role, balance, income, total_money,
		is_verified, is_blocked, version, created_at, updated_at`

// AccountRepository implements account.Repository for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Email,
		acc.Phone,
		acc.SecretHash,
		acc.Role,
		acc.Balance,
		acc.Income,
		acc.TotalMoney,
		acc.IsVerified,
		acc.IsBlocked,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return account.ErrDuplicateAccount{Field: duplicateField(pgErr.ConstraintName)}
		}
		r.logger.Error("Failed to create account", "account_id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func duplicateField(constraint string) string {
	switch {
	case strings.Contains(constraint, "phone"):
		return "phone"
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "admin"):
		return "admin role"
	default:
		return "identity"
	}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "account_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE phone = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Phone: phone}
		}
		r.logger.Error("Failed to get account by phone", "phone", phone, "error", err)
		return nil, fmt.Errorf("failed to get account by phone: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) GetAdmin(ctx context.Context) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role = 'admin'`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAdminNotFound{}
		}
		r.logger.Error("Failed to resolve admin account", "error", err)
		return nil, fmt.Errorf("failed to resolve admin account: %w", err)
	}
	return acc, nil
}

// LockForUpdate takes row locks in ascending id order. Two units of work that
// touch the same accounts in swapped roles therefore queue instead of deadlocking.
func (r *AccountRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	keys := SortedIDs(ids)

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE`

	rows, err := r.querier.Query(ctx, query, keys)
	if err != nil {
		r.logger.Error("Failed to lock accounts", "ids", keys, "error", err)
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]*account.Account, len(keys))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account: %w", err)
		}
		locked[acc.ID] = acc
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to lock accounts", "ids", keys, "error", err)
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}

	return locked, nil
}

// SortedIDs returns the distinct ids as strings in the order Postgres sorts uuid values
func SortedIDs(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id.String())
	}
	// Lower-case hex text order matches uuid byte order.
	sort.Strings(out)
	return out
}

func (r *AccountRepository) UpdateFunds(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, income = $2, total_money = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`

	result, err := r.querier.Exec(ctx, query,
		acc.Balance,
		acc.Income,
		acc.TotalMoney,
		acc.UpdatedAt,
		acc.ID,
		acc.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update account funds", "account_id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account funds: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}

	acc.Version++
	return nil
}

const pendingAgentsFilter = `role = 'agent' AND NOT is_verified`

func (r *AccountRepository) ListPendingAgents(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE ` + pendingAgentsFilter + `
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list pending agents", "error", err)
		return nil, fmt.Errorf("failed to list pending agents: %w", err)
	}
	defer rows.Close()

	var pending []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending agent: %w", err)
		}
		pending = append(pending, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending agents: %w", err)
	}
	return pending, nil
}

func (r *AccountRepository) CountPendingAgents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE `+pendingAgentsFilter).Scan(&n); err != nil {
		r.logger.Error("Failed to count pending agents", "error", err)
		return 0, fmt.Errorf("failed to count pending agents: %w", err)
	}
	return n, nil
}

func (r *AccountRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return r.setFlag(ctx, "is_verified", id, verified)
}

func (r *AccountRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	return r.setFlag(ctx, "is_blocked", id, blocked)
}

// setFlag only ever receives one of the two literal column names above
func (r *AccountRepository) setFlag(ctx context.Context, column string, id uuid.UUID, value bool) error {
	query := `UPDATE accounts SET ` + column + ` = $1, version = version + 1, updated_at = NOW() WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, value, id)
	if err != nil {
		r.logger.Error("Failed to update account flag", "account_id", id.String(), "flag", column, "error", err)
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}
	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.Phone,
		&acc.SecretHash,
		&acc.Role,
		&acc.Balance,
		&acc.Income,
		&acc.TotalMoney,
		&acc.IsVerified,
		&acc.IsBlocked,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
