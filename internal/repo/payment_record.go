package repo

import (
	"context"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentRecordRepository interface {
	Create(ctx context.Context, record *domain.PaymentRecord) error
	// GetClientRecord returns the order's client-flow record. Lookups
	// take the first match; a unique index keeps duplicates out.
	GetClientRecord(ctx context.Context, orderID string) (*domain.PaymentRecord, error)
	GetPartnerRecord(ctx context.Context, orderID, partnerID, subOrderDate string) (*domain.PaymentRecord, error)
	ListByOrderID(ctx context.Context, orderID string) ([]domain.PaymentRecord, error)
	UpdateTotalPrice(ctx context.Context, id primitive.ObjectID, totalPrice int64) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipientID(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error)
}
