package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/repo"
)

// InitiationService creates provider transactions for sub-orders that
// have none yet, re-initiating edited ones first, and records the
// resulting transaction ids back onto the plan.
type InitiationService struct {
	flexClient    marketplace.Client
	tokens        marketplace.TokenExchanger
	orderRepo     repo.OrderRepository
	planRepo      repo.PlanRepository
	notifications *NotificationService
	location      *time.Location
	deliveryHour  int
	logger        *zap.SugaredLogger
}

func NewInitiationService(
	flexClient marketplace.Client,
	tokens marketplace.TokenExchanger,
	orderRepo repo.OrderRepository,
	planRepo repo.PlanRepository,
	notifications *NotificationService,
	location *time.Location,
	deliveryHour int,
	logger *zap.SugaredLogger,
) *InitiationService {
	return &InitiationService{
		flexClient:    flexClient,
		tokens:        tokens,
		orderRepo:     orderRepo,
		planRepo:      planRepo,
		notifications: notifications,
		location:      location,
		deliveryHour:  deliveryHour,
		logger:        logger,
	}
}

// InitiateTransactions processes one (order, plan) pair end to end:
// partition sub-orders, forward edited transactions, create the
// missing ones, persist the plan and refresh the order's provider
// snapshot. Batch work is best-effort; a sub-order whose transaction
// fails to create is left untouched for the next run.
func (s *InitiationService) InitiateTransactions(ctx context.Context, orderID, planID string) (*domain.Plan, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	// delegated credential for acting on behalf of the booker
	accessToken, err := s.tokens.ExchangeToken(ctx, order.BookerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve delegated credential: %w", err)
	}

	var pendingDates, editedDates []string
	for dateKey, so := range plan.OrderDetail {
		if so.TransactionID == "" {
			if !so.IsEmpty() {
				pendingDates = append(pendingDates, dateKey)
			}
			continue
		}
		if so.IsEditedDraft {
			editedDates = append(editedDates, dateKey)
		}
	}

	if order.HasReachedInProgress() && len(editedDates) > 0 {
		pendingDates = append(pendingDates, s.forwardEdited(ctx, plan, editedDates)...)
	}

	sort.Strings(pendingDates)

	created := s.createTransactions(ctx, order, plan, pendingDates, accessToken)

	for i, dateKey := range pendingDates {
		tx := created[i]
		if tx == nil {
			continue
		}
		so := plan.OrderDetail[dateKey]
		so.TransactionID = tx.ID
		so.LastTransition = domain.TransitionInitiate
		so.IsEditedDraft = false
		so.IsLastTxOfPlan = i == len(pendingDates)-1
		plan.OrderDetail[dateKey] = so

		s.notifications.Enqueue(ctx, domain.NotificationMessage{
			Channel:      domain.ChannelEmail,
			Type:         domain.NotificationPartnerSubOrderCreated,
			RecipientID:  so.Restaurant.ID,
			OrderID:      order.ID,
			SubOrderDate: dateKey,
		})
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}

	if err := s.refreshPartnerSnapshot(ctx, order, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// forwardEdited transitions each edited sub-order's existing
// transaction per the cancellation table and clears its binding so it
// is re-initiated. Returns the dates that were successfully cleared.
func (s *InitiationService) forwardEdited(ctx context.Context, plan *domain.Plan, editedDates []string) []string {
	tasks := make([]func(context.Context) error, len(editedDates))
	for i, dateKey := range editedDates {
		so := plan.OrderDetail[dateKey]
		tasks[i] = func(ctx context.Context) error {
			next, ok := domain.NextCancelTransition(so.LastTransition)
			if !ok {
				return fmt.Errorf("no cancellation from %q for transaction %s", so.LastTransition, so.TransactionID)
			}
			_, err := s.flexClient.TransitionTransaction(ctx, so.TransactionID, next, nil, nil)
			return err
		}
	}

	results := settleAll(ctx, tasks...)

	var cleared []string
	for i, err := range results {
		dateKey := editedDates[i]
		if err != nil {
			s.logger.Errorw("failed to forward edited sub-order",
				"plan_id", plan.ID, "sub_order_date", dateKey, "error", err)
			continue
		}

		so := plan.OrderDetail[dateKey]
		so.OldValues = append(so.OldValues, domain.SubOrderSnapshot{
			TransactionID:  so.TransactionID,
			LastTransition: so.LastTransition,
			LineItems:      so.LineItems,
			UpdatedAt:      time.Now(),
		})
		so.TransactionID = ""
		so.LastTransition = ""
		plan.OrderDetail[dateKey] = so
		cleared = append(cleared, dateKey)
	}

	return cleared
}

func (s *InitiationService) createTransactions(ctx context.Context, order *domain.Order, plan *domain.Plan, pendingDates []string, accessToken string) []*marketplace.Transaction {
	created := make([]*marketplace.Transaction, len(pendingDates))

	tasks := make([]func(context.Context) error, len(pendingDates))
	for i, dateKey := range pendingDates {
		i, dateKey := i, dateKey
		tasks[i] = func(ctx context.Context) error {
			tx, err := s.initiateOne(ctx, order, plan.OrderDetail[dateKey], dateKey,
				i == len(pendingDates)-1, accessToken)
			if err != nil {
				return err
			}
			created[i] = tx
			return nil
		}
	}

	for i, err := range settleAll(ctx, tasks...) {
		if err != nil {
			s.logger.Errorw("failed to initiate sub-order transaction",
				"order_id", order.ID, "sub_order_date", pendingDates[i], "error", err)
		}
	}

	return created
}

func (s *InitiationService) initiateOne(ctx context.Context, order *domain.Order, so domain.SubOrder, dateKey string, isLast bool, accessToken string) (*marketplace.Transaction, error) {
	millis, err := strconv.ParseInt(dateKey, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed date key %q: %w", dateKey, err)
	}
	dayStart := domain.DayStart(time.UnixMilli(millis), s.location)

	var participantIDs, anonymousIDs []string
	for id := range so.MemberOrders {
		participantIDs = append(participantIDs, id)
	}
	for id := range so.AnonymousOrders {
		anonymousIDs = append(anonymousIDs, id)
	}
	sort.Strings(participantIDs)
	sort.Strings(anonymousIDs)

	protectedData := map[string]interface{}{}
	if order.OrderType == domain.OrderTypeGroup {
		protectedData["memberOrders"] = so.MemberOrders
		protectedData["anonymousOrders"] = so.AnonymousOrders
	} else {
		protectedData["lineItems"] = so.PickedFoods()
	}

	return s.flexClient.InitiateTransaction(ctx, marketplace.InitiateParams{
		ListingID:    so.Restaurant.ID,
		BookingStart: dayStart,
		BookingEnd:   dayStart.AddDate(0, 0, 1),
		DisplayStart: dayStart.Add(time.Duration(s.deliveryHour) * time.Hour),
		DisplayEnd:   dayStart.AddDate(0, 0, 1),
		Metadata: map[string]interface{}{
			"orderId":        order.ID,
			"participantIds": participantIDs,
			"anonymousIds":   anonymousIDs,
			"isLastTxOfPlan": isLast,
		},
		ProtectedData: protectedData,
		AccessToken:   accessToken,
	})
}

// refreshPartnerSnapshot re-derives the order's provider set and each
// provider's declared VAT setting from its public listing data.
func (s *InitiationService) refreshPartnerSnapshot(ctx context.Context, order *domain.Order, plan *domain.Plan) error {
	partnerIDs := plan.PartnerIDs()

	vatSettings := make(map[string]string, len(partnerIDs))
	for _, partnerID := range partnerIDs {
		vatSettings[partnerID] = domain.VATSettingVAT

		l, err := s.flexClient.ShowListing(ctx, partnerID)
		if err != nil {
			s.logger.Warnw("failed to load provider listing, using default VAT setting",
				"partner_id", partnerID, "error", err)
			continue
		}

		switch setting, _ := l.PublicData["vat"].(string); setting {
		case domain.VATSettingVAT, domain.VATSettingNoExportVAT, domain.VATSettingDirect:
			vatSettings[partnerID] = setting
		}
	}

	order.PartnerIDs = partnerIDs
	order.PartnerVATSettings = vatSettings

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return fmt.Errorf("failed to refresh partner snapshot on order %s: %w", order.ID, err)
	}

	return nil
}
