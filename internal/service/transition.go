package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/repo"
)

// TransitionService drives a sub-order's provider transaction through
// its lifecycle and cascades the side effects of cancellation-class
// transitions: notifications, re-quote, payment sync and order status
// aggregation.
type TransitionService struct {
	flexClient       marketplace.Client
	orderRepo        repo.OrderRepository
	planRepo         repo.PlanRepository
	quotationRepo    repo.QuotationRepository
	quotationService *QuotationService
	paymentSync      *PaymentSyncService
	statusService    *StatusService
	notifications    *NotificationService
	location         *time.Location
	notifyProvider   bool
	logger           *zap.SugaredLogger
}

type TransitionConfig struct {
	Location               *time.Location
	NotifyProviderOnCancel bool
}

func NewTransitionService(
	flexClient marketplace.Client,
	orderRepo repo.OrderRepository,
	planRepo repo.PlanRepository,
	quotationRepo repo.QuotationRepository,
	quotationService *QuotationService,
	paymentSync *PaymentSyncService,
	statusService *StatusService,
	notifications *NotificationService,
	cfg TransitionConfig,
	logger *zap.SugaredLogger,
) *TransitionService {
	return &TransitionService{
		flexClient:       flexClient,
		orderRepo:        orderRepo,
		planRepo:         planRepo,
		quotationRepo:    quotationRepo,
		quotationService: quotationService,
		paymentSync:      paymentSync,
		statusService:    statusService,
		notifications:    notifications,
		location:         cfg.Location,
		notifyProvider:   cfg.NotifyProviderOnCancel,
		logger:           logger,
	}
}

// Transition applies transitionName to the transaction on the backend
// and runs the dependent cascade. Bad input and a failing transition
// call abort the whole step; secondary effects are best-effort.
func (s *TransitionService) Transition(ctx context.Context, transactionID, transitionName string) (*marketplace.Transaction, error) {
	if transactionID == "" {
		return nil, domain.ErrMissingTransactionID
	}

	transition := domain.Transition(transitionName)
	if !transition.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTransition, transitionName)
	}

	tx, err := s.flexClient.TransitionTransaction(ctx, transactionID, transition, nil,
		[]string{"booking", "listing", "provider"})
	if err != nil {
		return nil, fmt.Errorf("failed to transition transaction %s to %s: %w", transactionID, transition, err)
	}

	if tx.Booking == nil {
		return nil, fmt.Errorf("transaction %s has no booking window", transactionID)
	}
	dateKey := domain.DateKey(tx.Booking.DisplayStart, s.location)

	orderID := tx.OrderID()
	if orderID == "" {
		return nil, fmt.Errorf("transaction %s carries no order reference", transactionID)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(order.PlanIDs) == 0 {
		return nil, fmt.Errorf("order %s has no plan", orderID)
	}

	plan, err := s.planRepo.GetByID(ctx, order.PlanIDs[0])
	if err != nil {
		return nil, err
	}

	if transition.IsOperatorCancel() {
		if err := s.cascadeCancellation(ctx, order, plan, tx, transition, dateKey); err != nil {
			return nil, err
		}
	}

	// the sub-order's last transition is persisted for every
	// transition class, not only cancellations
	if err := s.recordTransition(ctx, plan, transition, dateKey); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *TransitionService) cascadeCancellation(ctx context.Context, order *domain.Order, plan *domain.Plan, tx *marketplace.Transaction, transition domain.Transition, dateKey string) error {
	subOrder, ok := plan.OrderDetail[dateKey]
	if !ok {
		return fmt.Errorf("plan %s has no sub-order on %s: %w", plan.ID, dateKey, domain.ErrNotFound)
	}

	s.notifications.Enqueue(ctx, domain.NotificationMessage{
		Channel:      domain.ChannelEmail,
		Type:         domain.NotificationBookerSubOrderCanceled,
		RecipientID:  order.BookerID,
		OrderID:      order.ID,
		SubOrderDate: dateKey,
		Payload: map[string]interface{}{
			"restaurantName": subOrder.Restaurant.Name,
			"transition":     string(transition),
		},
	})

	for _, participantID := range subOrder.Participants() {
		s.notifications.Enqueue(ctx, domain.NotificationMessage{
			Channel:      domain.ChannelPush,
			Type:         domain.NotificationParticipantSubOrderCanceled,
			RecipientID:  participantID,
			OrderID:      order.ID,
			SubOrderDate: dateKey,
		})
		s.notifications.Enqueue(ctx, domain.NotificationMessage{
			Channel:      domain.ChannelInApp,
			Type:         domain.NotificationParticipantSubOrderCanceled,
			RecipientID:  participantID,
			OrderID:      order.ID,
			SubOrderDate: dateKey,
		})
	}

	if s.notifyProvider && tx.Provider != nil {
		s.notifications.Enqueue(ctx, domain.NotificationMessage{
			Channel:      domain.ChannelEmail,
			Type:         domain.NotificationPartnerSubOrderCanceled,
			RecipientID:  tx.Provider.ID,
			OrderID:      order.ID,
			SubOrderDate: dateKey,
		})
	}

	newQuotation, err := s.requoteWithoutDate(ctx, order, dateKey)
	if err != nil {
		return err
	}

	// payment sync and status aggregation have no ordering dependency;
	// partial failure degrades, it does not abort
	results := settleAll(ctx,
		func(ctx context.Context) error {
			return s.paymentSync.SyncPartner(ctx, order, newQuotation, subOrder.Restaurant.ID, dateKey)
		},
		func(ctx context.Context) error {
			return s.paymentSync.SyncClient(ctx, order, newQuotation)
		},
		func(ctx context.Context) error {
			return s.statusService.Reconcile(ctx, order, plan)
		},
	)
	for _, err := range results {
		if err != nil {
			s.logger.Errorw("cancellation side effect failed",
				"order_id", order.ID, "sub_order_date", dateKey, "error", err)
		}
	}

	return nil
}

// requoteWithoutDate supersedes the active quotation with a copy that
// omits the canceled date from both views.
func (s *TransitionService) requoteWithoutDate(ctx context.Context, order *domain.Order, dateKey string) (*domain.Quotation, error) {
	active, err := s.quotationRepo.GetActiveByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("order %s has no active quotation to re-quote: %w", order.ID, err)
		}
		return nil, err
	}

	client, partners := active.OmitDate(dateKey)

	return s.quotationService.CreateQuotation(ctx, CreateQuotationParams{
		OrderID:   order.ID,
		CompanyID: order.CompanyID,
		Client:    client,
		Partners:  partners,
	})
}

func (s *TransitionService) recordTransition(ctx context.Context, plan *domain.Plan, transition domain.Transition, dateKey string) error {
	subOrder, ok := plan.OrderDetail[dateKey]
	if !ok {
		return fmt.Errorf("plan %s has no sub-order on %s: %w", plan.ID, dateKey, domain.ErrNotFound)
	}

	if subOrder.LastTransition == transition {
		return nil
	}

	subOrder.OldValues = append(subOrder.OldValues, domain.SubOrderSnapshot{
		TransactionID:  subOrder.TransactionID,
		LastTransition: subOrder.LastTransition,
		UpdatedAt:      time.Now(),
	})
	subOrder.LastTransition = transition
	plan.OrderDetail[dateKey] = subOrder

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return fmt.Errorf("failed to record transition on plan %s: %w", plan.ID, err)
	}

	return nil
}
