// Package listing adapts marketplace listings into the order and plan
// repositories. Both aggregates live as listing metadata on the
// external backend; reads and writes are JSON round-trips over that
// metadata, with no optimistic-concurrency token.
package listing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
)

type OrderRepository struct {
	client marketplace.Client
}

func NewOrderRepository(client marketplace.Client) *OrderRepository {
	return &OrderRepository{client: client}
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	l, err := r.client.ShowListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}

	var order domain.Order
	if err := decodeMetadata(l.Metadata, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", id, err)
	}
	order.ID = l.ID

	return &order, nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	metadata, err := encodeMetadata(order)
	if err != nil {
		return fmt.Errorf("failed to encode order %s: %w", order.ID, err)
	}

	if _, err := r.client.UpdateListingMetadata(ctx, order.ID, metadata); err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}

	return nil
}

func decodeMetadata(metadata map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func encodeMetadata(in interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, err
	}
	delete(metadata, "id")

	return metadata, nil
}
