package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/repo"
)

// StatusService derives the order-level state from the set of
// sub-order transaction states.
type StatusService struct {
	flexClient marketplace.Client
	orderRepo  repo.OrderRepository
	logger     *zap.SugaredLogger
}

func NewStatusService(flexClient marketplace.Client, orderRepo repo.OrderRepository, logger *zap.SugaredLogger) *StatusService {
	return &StatusService{
		flexClient: flexClient,
		orderRepo:  orderRepo,
		logger:     logger,
	}
}

// Reconcile fetches every referenced transaction's last transition and
// applies at most one order state change:
// promote to completed when both payment flags hold, the order is in
// pendingPayment or inProgress and every transaction is settled;
// otherwise move to pendingPayment when every transaction is settled
// and the order is not there yet. A completed order with both flags
// still set stays completed.
func (s *StatusService) Reconcile(ctx context.Context, order *domain.Order, plan *domain.Plan) error {
	var txIDs []string
	for _, so := range plan.OrderDetail {
		if so.TransactionID != "" {
			txIDs = append(txIDs, so.TransactionID)
		}
	}

	if len(txIDs) == 0 {
		return nil
	}

	transitions, err := s.fetchTransitions(ctx, txIDs)
	if err != nil {
		return err
	}

	allSettled := true
	for _, transition := range transitions {
		if !transition.IsSettled() {
			allSettled = false
			break
		}
	}

	switch {
	case order.IsClientSufficientPaid && order.IsPartnerSufficientPaid &&
		(order.State == domain.OrderStatePendingPayment || order.State == domain.OrderStateInProgress) &&
		allSettled:
		order.PushState(domain.OrderStateCompleted)

	// a doubly-paid completed order is terminal; only a cleared
	// payment flag can send it back to pendingPayment
	case order.State == domain.OrderStateCompleted &&
		order.IsClientSufficientPaid && order.IsPartnerSufficientPaid:
		return nil

	case allSettled && order.State != domain.OrderStatePendingPayment:
		order.PushState(domain.OrderStatePendingPayment)

	default:
		return nil
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return fmt.Errorf("failed to persist order state %s: %w", order.State, err)
	}

	s.logger.Infow("order state reconciled", "order_id", order.ID, "state", order.State)

	return nil
}

func (s *StatusService) fetchTransitions(ctx context.Context, txIDs []string) ([]domain.Transition, error) {
	transitions := make([]domain.Transition, len(txIDs))

	var wg sync.WaitGroup
	errs := make([]error, len(txIDs))
	for i, id := range txIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			tx, err := s.flexClient.ShowTransaction(ctx, id, nil)
			if err != nil {
				errs[i] = fmt.Errorf("failed to fetch transaction %s: %w", id, err)
				return
			}
			transitions[i] = tx.LastTransition
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return transitions, nil
}
