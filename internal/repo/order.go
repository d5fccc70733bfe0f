package repo

import (
	"context"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}

type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
}
