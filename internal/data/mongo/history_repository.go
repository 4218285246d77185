package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/ledger"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

const (
	// HistoryCollectionName is the name of the per-account history collection in MongoDB
	HistoryCollectionName = "account_history"
)

// historyDocument is the stored form of a ledger.HistoryRecord.
// Account ids are kept as strings so the compound key is readable in the shell.
type historyDocument struct {
	TransactionID string               `bson:"transaction_id"`
	AccountID     string               `bson:"account_id"`
	Side          string               `bson:"side"`
	Type          string               `bson:"type"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Fee           primitive.Decimal128 `bson:"fee"`
	Delta         primitive.Decimal128 `bson:"delta"`
	Income        primitive.Decimal128 `bson:"income"`
	Counterparty  *account.Summary     `bson:"counterparty,omitempty"`
	CorrelationID string               `bson:"correlation_id,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	ProjectedAt   time.Time            `bson:"projected_at"`
}

// HistoryRepository implements ledger.HistoryRepository for MongoDB
type HistoryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewHistoryRepository(logger *slog.Logger, db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Indexes returns the indexes the history collection relies on. The unique
// key makes projection idempotent under redelivery.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}, {Key: "account_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("transaction_account_unique"),
		},
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("account_created_at"),
		},
	}
}

// Project upserts every record in one bulk write. Existing documents are left
// untouched, so a replayed event changes nothing.
func (r *HistoryRepository) Project(ctx context.Context, records []ledger.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(records))
	for i := range records {
		doc, err := toDocument(&records[i], now)
		if err != nil {
			return fmt.Errorf("failed to encode history record %s: %w", records[i].TransactionID, err)
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"transaction_id": doc.TransactionID, "account_id": doc.AccountID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	collection := r.db.Collection(HistoryCollectionName)
	result, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent delivery of the same event inserted first.
		return nil
	}
	if err != nil {
		r.logger.Error("Failed to project ledger history",
			"transaction_id", records[0].TransactionID,
			"error", err)
		return fmt.Errorf("failed to project ledger history: %w", err)
	}

	r.logger.Debug("Projected ledger history",
		"transaction_id", records[0].TransactionID,
		"upserted", result.UpsertedCount,
		"matched", result.MatchedCount)
	return nil
}

// ListByAccount retrieves paginated history for an account, newest first
func (r *HistoryRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.HistoryRecord, error) {
	collection := r.db.Collection(HistoryCollectionName)

	filter := bson.M{"account_id": accountID.String()}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "transaction_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get account history",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get account history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []historyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode account history",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode account history: %w", err)
	}

	records := make([]*ledger.HistoryRecord, 0, len(docs))
	for i := range docs {
		record, err := fromDocument(&docs[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode account history: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// CountByAccount counts the history records of an account
func (r *HistoryRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(HistoryCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"account_id": accountID.String()})
	if err != nil {
		r.logger.Error("Failed to count account history",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count account history: %w", err)
	}
	return count, nil
}

func toDocument(r *ledger.HistoryRecord, projectedAt time.Time) (*historyDocument, error) {
	amount, err := toDecimal128(r.Amount)
	if err != nil {
		return nil, err
	}
	fee, err := toDecimal128(r.Fee)
	if err != nil {
		return nil, err
	}
	delta, err := toDecimal128(r.Delta)
	if err != nil {
		return nil, err
	}
	income, err := toDecimal128(r.Income)
	if err != nil {
		return nil, err
	}

	return &historyDocument{
		TransactionID: r.TransactionID,
		AccountID:     r.AccountID.String(),
		Side:          string(r.Side),
		Type:          string(r.Type),
		Amount:        amount,
		Fee:           fee,
		Delta:         delta,
		Income:        income,
		Counterparty:  r.Counterparty,
		CorrelationID: r.CorrelationID,
		CreatedAt:     r.CreatedAt,
		ProjectedAt:   projectedAt,
	}, nil
}

func fromDocument(d *historyDocument) (*ledger.HistoryRecord, error) {
	accountID, err := uuid.Parse(d.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", d.AccountID, err)
	}

	var values [4]decimal.Decimal
	for i, v := range []primitive.Decimal128{d.Amount, d.Fee, d.Delta, d.Income} {
		values[i], err = fromDecimal128(v)
		if err != nil {
			return nil, err
		}
	}

	return &ledger.HistoryRecord{
		TransactionID: d.TransactionID,
		AccountID:     accountID,
		Side:          ledger.Side(d.Side),
		Type:          shared.TransactionType(d.Type),
		Amount:        values[0],
		Fee:           values[1],
		Delta:         values[2],
		Income:        values[3],
		Counterparty:  d.Counterparty,
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.CreatedAt.UTC(),
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}
