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

type PaymentRecordRepository struct {
	collection *mongo.Collection
}

func NewPaymentRecordRepository(db *mongo.Database) *PaymentRecordRepository {
	return &PaymentRecordRepository{
		collection: db.Collection("payment_records"),
	}
}

func (r *PaymentRecordRepository) Create(ctx context.Context, record *domain.PaymentRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	return nil
}

func (r *PaymentRecordRepository) GetClientRecord(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"payment_type": domain.PaymentTypeClient,
		"order_id":     orderID,
	}

	// first match by creation order
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var record domain.PaymentRecord
	err := r.collection.FindOne(ctx, filter, opts).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, notFound("client payment record")
		}
		return nil, fmt.Errorf("failed to get client payment record: %w", err)
	}

	return &record, nil
}

func (r *PaymentRecordRepository) GetPartnerRecord(ctx context.Context, orderID, partnerID, subOrderDate string) (*domain.PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"payment_type":   domain.PaymentTypePartner,
		"order_id":       orderID,
		"partner_id":     partnerID,
		"sub_order_date": subOrderDate,
	}

	var record domain.PaymentRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, notFound("partner payment record")
		}
		return nil, fmt.Errorf("failed to get partner payment record: %w", err)
	}

	return &record, nil
}

func (r *PaymentRecordRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode payment records: %w", err)
	}

	return records, nil
}

func (r *PaymentRecordRepository) UpdateTotalPrice(ctx context.Context, id primitive.ObjectID, totalPrice int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"total_price": totalPrice}},
	)
	if err != nil {
		return fmt.Errorf("failed to update payment record: %w", err)
	}

	if result.MatchedCount == 0 {
		return notFound("payment record")
	}

	return nil
}

func (r *PaymentRecordRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete payment record: %w", err)
	}

	if result.DeletedCount == 0 {
		return notFound("payment record")
	}

	return nil
}
