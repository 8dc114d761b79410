package store

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/josva12/Mpesa-PaySTK/internal/models"
)

// MongoStore keeps transactions in a single collection keyed by the
// unique checkout_request_id index.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection("transactions")}
}

// EnsureIndexes creates the uniqueness and lookup indexes the store
// relies on. Called once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "checkout_request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Sparse: the receipt number only exists after a successful
			// callback.
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "amount", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Printf("Failed to create indexes: %v", err)
		return fmt.Errorf("failed to create indexes: %v", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, tx *models.Transaction) error {
	if _, err := s.collection.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save transaction: %v", err)
	}
	return nil
}

func (s *MongoStore) ApplyResult(ctx context.Context, checkoutRequestID string, update ResultUpdate) (*models.Transaction, error) {
	set := bson.M{
		"status":      update.Status,
		"result_code": update.ResultCode,
		"result_desc": update.ResultDesc,
		"updated_at":  update.UpdatedAt,
	}
	if update.Receipt != nil {
		set["transaction_id"] = update.Receipt.ReceiptNumber
		// Provider-confirmed values overwrite the request-time ones, but
		// only when the callback actually carried them.
		if update.Receipt.Amount > 0 {
			set["amount"] = update.Receipt.Amount
		}
		if update.Receipt.Phone != "" {
			set["phone"] = update.Receipt.Phone
		}
		if update.Receipt.TransactionDate != 0 {
			set["transaction_date"] = update.Receipt.TransactionDate
		}
		if update.Receipt.Balance != 0 {
			set["balance"] = update.Receipt.Balance
		}
	}

	// Only a PENDING document is eligible: the filter makes the terminal
	// transition a single atomic conditional write, so redelivered or
	// conflicting callbacks cannot regress a finalized transaction.
	filter := bson.M{
		"checkout_request_id": checkoutRequestID,
		"status":              models.StatusPending,
	}
	if _, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %v", err)
	}

	var tx models.Transaction
	err := s.collection.FindOne(ctx, bson.M{"checkout_request_id": checkoutRequestID}).Decode(&tx)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction: %v", err)
	}
	return &tx, nil
}

func (s *MongoStore) List(ctx context.Context, f Filter, limit, skip int64) ([]models.Transaction, int64, error) {
	query := bson.M{}
	if f.Phone != "" {
		query["phone"] = f.Phone
	}
	if f.Status != "" {
		query["status"] = f.Status
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %v", err)
	}
	defer cur.Close(ctx)

	transactions := []models.Transaction{}
	if err := cur.All(ctx, &transactions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode transactions: %v", err)
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %v", err)
	}

	return transactions, total, nil
}
