package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

type QuotationRepository struct {
	storage    *Storage
	collection *mongo.Collection
}

func NewQuotationRepository(storage *Storage) *QuotationRepository {
	return &QuotationRepository{
		storage:    storage,
		collection: storage.Database().Collection("quotations"),
	}
}

// Supersede deactivates every active quotation of the order and
// inserts q as the new active one inside a single transaction.
func (r *QuotationRepository) Supersede(ctx context.Context, q *domain.Quotation) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	q.Status = domain.QuotationStatusActive
	q.CreatedAt = time.Now()
	q.UpdatedAt = time.Now()

	err := r.storage.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		_, err := r.collection.UpdateMany(sessCtx,
			bson.M{"order_id": q.OrderID, "status": domain.QuotationStatusActive},
			bson.M{"$set": bson.M{
				"status":     domain.QuotationStatusInactive,
				"updated_at": time.Now(),
			}},
		)
		if err != nil {
			return fmt.Errorf("failed to deactivate quotations: %w", err)
		}

		if _, err := r.collection.InsertOne(sessCtx, q); err != nil {
			return fmt.Errorf("failed to insert quotation: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to supersede quotation: %w", err)
	}

	return nil
}

func (r *QuotationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Quotation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var quotation domain.Quotation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&quotation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, notFound("quotation")
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}

	return &quotation, nil
}

func (r *QuotationRepository) GetActiveByOrderID(ctx context.Context, orderID string) (*domain.Quotation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var quotation domain.Quotation
	filter := bson.M{"order_id": orderID, "status": domain.QuotationStatusActive}
	err := r.collection.FindOne(ctx, filter).Decode(&quotation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, notFound("active quotation")
		}
		return nil, fmt.Errorf("failed to get active quotation: %w", err)
	}

	return &quotation, nil
}

func (r *QuotationRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.Quotation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}
	defer cursor.Close(ctx)

	var quotations []domain.Quotation
	if err := cursor.All(ctx, &quotations); err != nil {
		return nil, fmt.Errorf("failed to decode quotations: %w", err)
	}

	return quotations, nil
}
