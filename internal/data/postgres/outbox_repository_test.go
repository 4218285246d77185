package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mobile-money-ledger/internal/domain/outbox"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var outboxColumnNames = []string{"id", "transaction_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

func newOutboxRepo(t *testing.T) (*OutboxRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &OutboxRepository{querier: mock, logger: newTestLogger()}, mock
}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	msg := &outbox.Message{
		TransactionID: "TXN-20260101-00000000000000AA",
		Payload:       json.RawMessage(`{"type":"transfer"}`),
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	query := regexp.QuoteMeta("INSERT INTO ledger_outbox (transaction_id, payload, status, attempts, created_at)")

	t.Run("success", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectQuery(query).
			WithArgs(msg.TransactionID, msg.Payload, msg.Status, 0, msg.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		require.NoError(t, repo.Create(ctx, msg))
		assert.Equal(t, int64(42), msg.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectQuery(query).
			WithArgs(msg.TransactionID, msg.Payload, msg.Status, 0, msg.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, msg)
		assert.ErrorAs(t, err, &outbox.ErrDuplicateMessage{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("FROM ledger_outbox WHERE status = $1 ORDER BY id ASC LIMIT $2")
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		rows := pgxmock.NewRows(outboxColumnNames).
			AddRow(int64(1), "TXN-A", json.RawMessage(`{}`), shared.OutboxStatusPending, 0, now, nil).
			AddRow(int64(2), "TXN-B", json.RawMessage(`{}`), shared.OutboxStatusPending, 2, now, &now)
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnRows(rows)

		msgs, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "TXN-A", msgs[0].TransactionID)
		assert.Nil(t, msgs[0].LastAttemptAt)
		assert.Equal(t, 2, msgs[1].Attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnError(errors.New("db down"))

		_, err := repo.GetPending(ctx, 10)
		assert.ErrorContains(t, err, "failed to get pending outbox messages")
	})
}

func TestOutboxRepository_UpdateStatusAndAttempts(t *testing.T) {
	ctx := context.Background()

	t.Run("update status", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE ledger_outbox SET status = $1")).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.UpdateStatus(ctx, 7, shared.OutboxStatusProcessed))
	})

	t.Run("update missing", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE ledger_outbox SET status = $1")).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		err := repo.UpdateStatus(ctx, 7, shared.OutboxStatusProcessed)
		assert.Equal(t, outbox.ErrMessageNotFound{ID: 7}, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increment attempts", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("SET attempts = attempts + 1")).
			WithArgs(pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.IncrementAttempts(ctx, 7))
	})
}

func TestOutboxRepository_GetByTransactionID(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("FROM ledger_outbox WHERE transaction_id = $1")

	t.Run("found", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectQuery(query).WithArgs("TXN-A").WillReturnRows(pgxmock.NewRows(outboxColumnNames).
			AddRow(int64(3), "TXN-A", json.RawMessage(`{}`), shared.OutboxStatusProcessed, 1, time.Now(), nil))

		msg, err := repo.GetByTransactionID(ctx, "TXN-A")
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectQuery(query).WithArgs("TXN-X").WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByTransactionID(ctx, "TXN-X")
		assert.ErrorAs(t, err, &outbox.ErrMessageNotFound{})
	})
}
