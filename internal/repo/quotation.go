package repo

import (
	"context"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuotationRepository interface {
	// Supersede inserts q as the order's active quotation and
	// deactivates every previously active one in a single
	// transaction, so at most one quotation per order is ever active.
	Supersede(ctx context.Context, q *domain.Quotation) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Quotation, error)
	GetActiveByOrderID(ctx context.Context, orderID string) (*domain.Quotation, error)
	ListByOrderID(ctx context.Context, orderID string) ([]domain.Quotation, error)
}

// SequenceRepository hands out monotonically increasing numbers for
// human-readable quotation codes. Next must be atomic across
// concurrent callers.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
