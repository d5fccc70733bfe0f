package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

const dateKey = "1726419600000"

func testOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		VATPercentage: 0.08,
		ServiceFees:   map[string]float64{"rest-1": 0.15},
	}
}

func partnerQuotation(items []domain.LineItem) *domain.Quotation {
	return &domain.Quotation{
		OrderID: "order-1",
		Status:  domain.QuotationStatusActive,
		Client:  domain.ClientQuote{Quotation: map[string][]domain.LineItem{dateKey: items}},
		Partners: map[string]domain.PartnerQuote{
			"rest-1": {Name: "Quan A", Quotation: map[string][]domain.LineItem{dateKey: items}},
		},
	}
}

func TestSyncPartner_CreatesRecord(t *testing.T) {
	payments := &fakePaymentRepo{}
	svc := NewPaymentSyncService(payments, zap.NewNop().Sugar())

	items := []domain.LineItem{{FoodID: "f1", FoodPrice: 60000, Frequency: 10}}
	err := svc.SyncPartner(context.Background(), testOrder(), partnerQuotation(items), "rest-1", dateKey)
	if err != nil {
		t.Fatalf("SyncPartner failed: %v", err)
	}

	record, err := payments.GetPartnerRecord(context.Background(), "order-1", "rest-1", dateKey)
	if err != nil {
		t.Fatalf("expected partner record to exist: %v", err)
	}
	// 600000 - 15% service fee = 510000, +8% VAT = 550800
	if record.TotalPrice != 550800 {
		t.Errorf("TotalPrice = %d, expected 550800", record.TotalPrice)
	}
}

func TestSyncPartner_UpdatesExisting(t *testing.T) {
	payments := &fakePaymentRepo{}
	svc := NewPaymentSyncService(payments, zap.NewNop().Sugar())
	ctx := context.Background()

	_ = payments.Create(ctx, &domain.PaymentRecord{
		PaymentType:  domain.PaymentTypePartner,
		OrderID:      "order-1",
		PartnerID:    "rest-1",
		SubOrderDate: dateKey,
		TotalPrice:   999999,
	})

	items := []domain.LineItem{{FoodID: "f1", FoodPrice: 60000, Frequency: 10}}
	if err := svc.SyncPartner(ctx, testOrder(), partnerQuotation(items), "rest-1", dateKey); err != nil {
		t.Fatalf("SyncPartner failed: %v", err)
	}

	record, _ := payments.GetPartnerRecord(ctx, "order-1", "rest-1", dateKey)
	if record.TotalPrice != 550800 {
		t.Errorf("TotalPrice = %d, expected 550800", record.TotalPrice)
	}
	if payments.creates != 1 {
		t.Errorf("expected no new record, creates = %d", payments.creates)
	}
}

func TestSyncPartner_ZeroDeletesRecord(t *testing.T) {
	payments := &fakePaymentRepo{}
	svc := NewPaymentSyncService(payments, zap.NewNop().Sugar())
	ctx := context.Background()

	_ = payments.Create(ctx, &domain.PaymentRecord{
		PaymentType:  domain.PaymentTypePartner,
		OrderID:      "order-1",
		PartnerID:    "rest-1",
		SubOrderDate: dateKey,
		TotalPrice:   550800,
	})

	// the re-quote removed every item for this provider and date
	if err := svc.SyncPartner(ctx, testOrder(), partnerQuotation(nil), "rest-1", dateKey); err != nil {
		t.Fatalf("SyncPartner failed: %v", err)
	}

	if _, err := payments.GetPartnerRecord(ctx, "order-1", "rest-1", dateKey); err == nil {
		t.Error("expected drained partner record to be deleted, not zeroed")
	}
}

func TestSyncPartner_SkipVATForDirectProviders(t *testing.T) {
	payments := &fakePaymentRepo{}
	svc := NewPaymentSyncService(payments, zap.NewNop().Sugar())

	order := testOrder()
	order.PartnerVATSettings = map[string]string{"rest-1": domain.VATSettingDirect}

	items := []domain.LineItem{{FoodID: "f1", FoodPrice: 60000, Frequency: 10}}
	if err := svc.SyncPartner(context.Background(), order, partnerQuotation(items), "rest-1", dateKey); err != nil {
		t.Fatalf("SyncPartner failed: %v", err)
	}

	record, _ := payments.GetPartnerRecord(context.Background(), "order-1", "rest-1", dateKey)
	if record.TotalPrice != 510000 {
		t.Errorf("TotalPrice = %d, expected 510000 without VAT", record.TotalPrice)
	}
}

func TestSyncClient_CreateThenDelete(t *testing.T) {
	payments := &fakePaymentRepo{}
	svc := NewPaymentSyncService(payments, zap.NewNop().Sugar())
	ctx := context.Background()

	items := []domain.LineItem{{FoodID: "f1", FoodPrice: 60000, Frequency: 10}}
	if err := svc.SyncClient(ctx, testOrder(), partnerQuotation(items)); err != nil {
		t.Fatalf("SyncClient failed: %v", err)
	}

	record, err := payments.GetClientRecord(ctx, "order-1")
	if err != nil {
		t.Fatalf("expected client record to exist: %v", err)
	}
	// 600000 + 70000 PCC fee = 670000, +8% VAT = 723600
	if record.TotalPrice != 723600 {
		t.Errorf("TotalPrice = %d, expected 723600", record.TotalPrice)
	}

	empty := &domain.Quotation{Client: domain.ClientQuote{Quotation: map[string][]domain.LineItem{}}}
	if err := svc.SyncClient(ctx, testOrder(), empty); err != nil {
		t.Fatalf("SyncClient on empty quotation failed: %v", err)
	}
	if _, err := payments.GetClientRecord(ctx, "order-1"); err == nil {
		t.Error("expected client record to be deleted when total drops to zero")
	}
}
