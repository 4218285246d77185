package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/platform/persistence"
)

// Entries are stored with the participant summaries as they were at commit time,
// so reads never need to join back to accounts.
const entryColumns = `id, transaction_id, type, amount, fee, agent_income, admin_income,
		source_id, source_name, source_role, source_phone,
		counterparty_id, counterparty_name, counterparty_role, counterparty_phone,
		correlation_id, created_at`

// LedgerRepository implements ledger.Repository on the append-only ledger_entries table
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *LedgerRepository) Create(ctx context.Context, e *ledger.Entry) error {
	if e.Source == nil || e.Counterparty == nil {
		return fmt.Errorf("ledger entry %s is missing participant summaries", e.TransactionID)
	}

	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.TransactionID,
		e.Type,
		e.Amount,
		e.Fee,
		e.AgentIncome,
		e.AdminIncome,
		e.SourceID,
		e.Source.Name,
		e.Source.Role,
		e.Source.Phone,
		e.CounterpartyID,
		e.Counterparty.Name,
		e.Counterparty.Role,
		e.Counterparty.Phone,
		e.CorrelationID,
		e.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ledger.ErrDuplicateEntry{TransactionID: e.TransactionID}
		}
		r.logger.Error("Failed to insert ledger entry", "transaction_id", e.TransactionID, "error", err)
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID string) (*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE transaction_id = $1`

	e, err := scanEntry(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get ledger entry", "transaction_id", transactionID, "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return e, nil
}

// ListByParticipant returns entries where the account is source or counterparty, newest first
func (r *LedgerRepository) ListByParticipant(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE source_id = $1 OR counterparty_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*ledger.Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}

func (r *LedgerRepository) CountByParticipant(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM ledger_entries WHERE source_id = $1 OR counterparty_id = $1`

	var n int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&n); err != nil {
		r.logger.Error("Failed to count ledger entries", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	e := ledger.Entry{Source: &account.Summary{}, Counterparty: &account.Summary{}}
	err := row.Scan(
		&e.ID,
		&e.TransactionID,
		&e.Type,
		&e.Amount,
		&e.Fee,
		&e.AgentIncome,
		&e.AdminIncome,
		&e.SourceID,
		&e.Source.Name,
		&e.Source.Role,
		&e.Source.Phone,
		&e.CounterpartyID,
		&e.Counterparty.Name,
		&e.Counterparty.Role,
		&e.Counterparty.Phone,
		&e.CorrelationID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Source.ID = e.SourceID
	e.Counterparty.ID = e.CounterpartyID
	return &e, nil
}
