package listing

import (
	"context"
	"fmt"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
)

type PlanRepository struct {
	client marketplace.Client
}

func NewPlanRepository(client marketplace.Client) *PlanRepository {
	return &PlanRepository{client: client}
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	l, err := r.client.ShowListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", id, err)
	}

	var plan domain.Plan
	if err := decodeMetadata(l.Metadata, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", id, err)
	}
	plan.ID = l.ID
	if plan.OrderDetail == nil {
		plan.OrderDetail = map[string]domain.SubOrder{}
	}

	return &plan, nil
}

func (r *PlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	metadata, err := encodeMetadata(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan %s: %w", plan.ID, err)
	}

	if _, err := r.client.UpdateListingMetadata(ctx, plan.ID, metadata); err != nil {
		return fmt.Errorf("failed to update plan %s: %w", plan.ID, err)
	}

	return nil
}
