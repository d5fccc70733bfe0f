package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
)

func initiationService(flex *fakeFlexClient, orderRepo *fakeOrderRepo, planRepo *fakePlanRepo, broker *fakeBroker) *InitiationService {
	logger := zap.NewNop().Sugar()
	notifications := NewNotificationService(broker, &fakeNotificationRepo{}, &fakeSender{}, logger)
	return NewInitiationService(flex, flex, orderRepo, planRepo, notifications, time.UTC, 7, logger)
}

func TestInitiateTransactions_CreatesPendingSubOrders(t *testing.T) {
	dayA := time.Date(2024, time.September, 16, 0, 0, 0, 0, time.UTC)
	dayB := dayA.AddDate(0, 0, 1)
	keyA := domain.DateKey(dayA, time.UTC)
	keyB := domain.DateKey(dayB, time.UTC)

	order := &domain.Order{
		ID:        "order-1",
		State:     domain.OrderStatePicking,
		BookerID:  "booker-1",
		PlanIDs:   []string{"plan-1"},
		OrderType: domain.OrderTypeGroup,
	}
	plan := &domain.Plan{
		ID:      "plan-1",
		OrderID: "order-1",
		OrderDetail: map[string]domain.SubOrder{
			keyA: {
				Restaurant: domain.RestaurantRef{
					ID:   "rest-1",
					Name: "Pho 24",
					FoodCatalogue: map[string]domain.Food{
						"food-1": {Name: "Pho bo", Price: 50000},
					},
				},
				MemberOrders: map[string]domain.MemberOrder{
					"user-1": {FoodID: "food-1", Status: domain.MemberOrderStatusJoined},
				},
			},
			keyB: {
				Restaurant: domain.RestaurantRef{
					ID:   "rest-2",
					Name: "Com Tam Ba Ghien",
					FoodCatalogue: map[string]domain.Food{
						"food-2": {Name: "Com tam", Price: 60000},
					},
				},
				MemberOrders: map[string]domain.MemberOrder{
					"user-2": {FoodID: "food-2", Status: domain.MemberOrderStatusJoined},
				},
			},
			// nothing picked and no transaction, must be skipped
			"1726617600000": {
				Restaurant: domain.RestaurantRef{ID: "rest-3"},
			},
		},
	}

	flex := newFakeFlexClient()
	flex.listings["rest-1"] = &marketplace.Listing{ID: "rest-1", PublicData: map[string]interface{}{"vat": "direct"}}
	flex.listings["rest-2"] = &marketplace.Listing{ID: "rest-2"}

	broker := &fakeBroker{}
	svc := initiationService(flex, newFakeOrderRepo(order), newFakePlanRepo(plan), broker)

	updated, err := svc.InitiateTransactions(context.Background(), "order-1", "plan-1")
	if err != nil {
		t.Fatalf("InitiateTransactions failed: %v", err)
	}

	soA := updated.OrderDetail[keyA]
	soB := updated.OrderDetail[keyB]
	if soA.TransactionID == "" || soB.TransactionID == "" {
		t.Fatal("expected both picked sub-orders to receive a transaction")
	}
	if soA.LastTransition != domain.TransitionInitiate || soB.LastTransition != domain.TransitionInitiate {
		t.Error("expected both sub-orders at initiate-transaction")
	}
	if soA.IsLastTxOfPlan {
		t.Error("earlier date flagged as last transaction of the plan")
	}
	if !soB.IsLastTxOfPlan {
		t.Error("latest date not flagged as last transaction of the plan")
	}
	if updated.OrderDetail["1726617600000"].TransactionID != "" {
		t.Error("empty sub-order received a transaction")
	}

	txA, err := flex.ShowTransaction(context.Background(), soA.TransactionID, nil)
	if err != nil {
		t.Fatalf("created transaction not retrievable: %v", err)
	}
	if got := txA.OrderID(); got != "order-1" {
		t.Errorf("transaction orderId = %q, expected order-1", got)
	}
	if got, _ := txA.Metadata["participantIds"].([]string); len(got) != 1 || got[0] != "user-1" {
		t.Errorf("transaction participantIds = %v, expected [user-1]", got)
	}
	if got := txA.Booking.DisplayStart; !got.Equal(dayA.Add(7 * time.Hour)) {
		t.Errorf("DisplayStart = %v, expected delivery hour applied to day start", got)
	}

	// one provider email per created transaction
	if got := broker.count(); got != 2 {
		t.Errorf("published %d notifications, expected 2", got)
	}

	if len(order.PartnerIDs) != 3 {
		t.Errorf("PartnerIDs = %v, expected all three providers", order.PartnerIDs)
	}
	if order.PartnerVATSettings["rest-1"] != domain.VATSettingDirect {
		t.Errorf("rest-1 vat setting = %q, expected direct from its listing", order.PartnerVATSettings["rest-1"])
	}
	if order.PartnerVATSettings["rest-2"] != domain.VATSettingVAT {
		t.Errorf("rest-2 vat setting = %q, expected the vat default", order.PartnerVATSettings["rest-2"])
	}
}

func TestInitiateTransactions_ForwardsEditedDrafts(t *testing.T) {
	day := time.Date(2024, time.September, 16, 0, 0, 0, 0, time.UTC)
	key := domain.DateKey(day, time.UTC)

	order := &domain.Order{
		ID:       "order-1",
		State:    domain.OrderStateInProgress,
		BookerID: "booker-1",
		PlanIDs:  []string{"plan-1"},
	}
	plan := &domain.Plan{
		ID:      "plan-1",
		OrderID: "order-1",
		OrderDetail: map[string]domain.SubOrder{
			key: {
				Restaurant: domain.RestaurantRef{
					ID:   "rest-1",
					Name: "Pho 24",
					FoodCatalogue: map[string]domain.Food{
						"food-1": {Name: "Pho bo", Price: 50000},
					},
				},
				MemberOrders: map[string]domain.MemberOrder{
					"user-1": {FoodID: "food-1", Status: domain.MemberOrderStatusJoined},
				},
				TransactionID:  "tx-old",
				LastTransition: domain.TransitionPartnerConfirmSubOrder,
				IsEditedDraft:  true,
			},
		},
	}

	flex := newFakeFlexClient()
	flex.transactions["tx-old"] = &marketplace.Transaction{
		ID:             "tx-old",
		LastTransition: domain.TransitionPartnerConfirmSubOrder,
	}

	svc := initiationService(flex, newFakeOrderRepo(order), newFakePlanRepo(plan), &fakeBroker{})

	updated, err := svc.InitiateTransactions(context.Background(), "order-1", "plan-1")
	if err != nil {
		t.Fatalf("InitiateTransactions failed: %v", err)
	}

	so := updated.OrderDetail[key]
	if so.TransactionID == "" || so.TransactionID == "tx-old" {
		t.Fatalf("TransactionID = %q, expected a fresh transaction", so.TransactionID)
	}
	if so.IsEditedDraft {
		t.Error("edited flag not cleared after re-initiation")
	}
	if len(so.OldValues) != 1 || so.OldValues[0].TransactionID != "tx-old" {
		t.Errorf("OldValues = %+v, expected one snapshot of tx-old", so.OldValues)
	}

	var canceledOld bool
	for _, entry := range flex.transitioned {
		if entry == "tx-old:"+string(domain.TransitionOperatorCancelAfterConfirmed) {
			canceledOld = true
		}
	}
	if !canceledOld {
		t.Errorf("transitions applied %v, expected tx-old canceled per its state", flex.transitioned)
	}
}

func TestInitiateTransactions_KeepsEditedDraftsBeforeInProgress(t *testing.T) {
	day := time.Date(2024, time.September, 16, 0, 0, 0, 0, time.UTC)
	key := domain.DateKey(day, time.UTC)

	order := &domain.Order{
		ID:       "order-1",
		State:    domain.OrderStatePicking,
		BookerID: "booker-1",
		PlanIDs:  []string{"plan-1"},
	}
	plan := &domain.Plan{
		ID:      "plan-1",
		OrderID: "order-1",
		OrderDetail: map[string]domain.SubOrder{
			key: {
				Restaurant:     domain.RestaurantRef{ID: "rest-1"},
				TransactionID:  "tx-old",
				LastTransition: domain.TransitionInitiate,
				IsEditedDraft:  true,
			},
		},
	}

	flex := newFakeFlexClient()
	flex.transactions["tx-old"] = &marketplace.Transaction{ID: "tx-old", LastTransition: domain.TransitionInitiate}

	svc := initiationService(flex, newFakeOrderRepo(order), newFakePlanRepo(plan), &fakeBroker{})

	updated, err := svc.InitiateTransactions(context.Background(), "order-1", "plan-1")
	if err != nil {
		t.Fatalf("InitiateTransactions failed: %v", err)
	}

	so := updated.OrderDetail[key]
	if so.TransactionID != "tx-old" {
		t.Errorf("TransactionID = %q, expected the edited draft left alone before inProgress", so.TransactionID)
	}
	if len(flex.transitioned) != 0 {
		t.Errorf("transitions applied %v, expected none", flex.transitioned)
	}
}

func TestInitiateTransactions_NormalOrderCarriesLineItems(t *testing.T) {
	day := time.Date(2024, time.September, 16, 0, 0, 0, 0, time.UTC)
	key := domain.DateKey(day, time.UTC)

	order := &domain.Order{
		ID:        "order-1",
		BookerID:  "booker-1",
		PlanIDs:   []string{"plan-1"},
		OrderType: domain.OrderTypeNormal,
	}
	plan := &domain.Plan{
		ID:      "plan-1",
		OrderID: "order-1",
		OrderDetail: map[string]domain.SubOrder{
			key: {
				Restaurant: domain.RestaurantRef{ID: "rest-1", Name: "Pho 24"},
				LineItems: []domain.LineItem{
					{FoodID: "food-1", FoodName: "Pho bo", FoodPrice: 50000, Frequency: 10},
				},
			},
		},
	}

	flex := newFakeFlexClient()
	svc := initiationService(flex, newFakeOrderRepo(order), newFakePlanRepo(plan), &fakeBroker{})

	updated, err := svc.InitiateTransactions(context.Background(), "order-1", "plan-1")
	if err != nil {
		t.Fatalf("InitiateTransactions failed: %v", err)
	}

	so := updated.OrderDetail[key]
	tx, err := flex.ShowTransaction(context.Background(), so.TransactionID, nil)
	if err != nil {
		t.Fatalf("created transaction not retrievable: %v", err)
	}
	if _, ok := tx.ProtectedData["lineItems"]; !ok {
		t.Error("normal order transaction missing lineItems protected data")
	}
	if _, ok := tx.ProtectedData["memberOrders"]; ok {
		t.Error("normal order transaction should not carry member selections")
	}
	if !strings.HasPrefix(so.TransactionID, "tx-new-") {
		t.Errorf("TransactionID = %q, expected a freshly initiated transaction", so.TransactionID)
	}
}
