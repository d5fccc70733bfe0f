package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/marketplace"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/queue"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return order, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[string]*domain.Plan
}

func newFakePlanRepo(plans ...*domain.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: map[string]*domain.Plan{}}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *fakePlanRepo) GetByID(_ context.Context, id string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
	}
	return plan, nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = plan
	return nil
}

type fakeQuotationRepo struct {
	mu         sync.Mutex
	quotations []*domain.Quotation
}

func (r *fakeQuotationRepo) Supersede(_ context.Context, q *domain.Quotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.quotations {
		if existing.OrderID == q.OrderID && existing.Status == domain.QuotationStatusActive {
			existing.Status = domain.QuotationStatusInactive
		}
	}

	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	q.Status = domain.QuotationStatusActive
	q.CreatedAt = time.Now()
	r.quotations = append(r.quotations, q)

	return nil
}

func (r *fakeQuotationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quotations {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, fmt.Errorf("quotation: %w", domain.ErrNotFound)
}

func (r *fakeQuotationRepo) GetActiveByOrderID(_ context.Context, orderID string) (*domain.Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quotations {
		if q.OrderID == orderID && q.Status == domain.QuotationStatusActive {
			return q, nil
		}
	}
	return nil, fmt.Errorf("active quotation: %w", domain.ErrNotFound)
}

func (r *fakeQuotationRepo) ListByOrderID(_ context.Context, orderID string) ([]domain.Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Quotation
	for _, q := range r.quotations {
		if q.OrderID == orderID {
			out = append(out, *q)
		}
	}
	return out, nil
}

type fakeSequences struct {
	mu      sync.Mutex
	counter int64
}

func (s *fakeSequences) Next(_ context.Context, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter, nil
}

type fakePaymentRepo struct {
	mu      sync.Mutex
	records []*domain.PaymentRecord
	creates int
}

func (r *fakePaymentRepo) Create(_ context.Context, record *domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()
	r.records = append(r.records, record)
	r.creates++
	return nil
}

func (r *fakePaymentRepo) GetClientRecord(_ context.Context, orderID string) (*domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.PaymentType == domain.PaymentTypeClient && record.OrderID == orderID {
			return record, nil
		}
	}
	return nil, fmt.Errorf("client payment record: %w", domain.ErrNotFound)
}

func (r *fakePaymentRepo) GetPartnerRecord(_ context.Context, orderID, partnerID, subOrderDate string) (*domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.PaymentType == domain.PaymentTypePartner &&
			record.OrderID == orderID &&
			record.PartnerID == partnerID &&
			record.SubOrderDate == subOrderDate {
			return record, nil
		}
	}
	return nil, fmt.Errorf("partner payment record: %w", domain.ErrNotFound)
}

func (r *fakePaymentRepo) ListByOrderID(_ context.Context, orderID string) ([]domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PaymentRecord
	for _, record := range r.records {
		if record.OrderID == orderID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) UpdateTotalPrice(_ context.Context, id primitive.ObjectID, totalPrice int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID == id {
			record.TotalPrice = totalPrice
			return nil
		}
	}
	return fmt.Errorf("payment record: %w", domain.ErrNotFound)
}

func (r *fakePaymentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, record := range r.records {
		if record.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("payment record: %w", domain.ErrNotFound)
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipientID(_ context.Context, recipientID string, _ int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeBroker struct {
	mu        sync.Mutex
	published [][]byte
	failWith  error
}

func (b *fakeBroker) Publish(_ context.Context, _ string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.published = append(b.published, message)
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string, _ queue.MessageHandler) error {
	return nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []domain.NotificationMessage
	failWith error
}

func (s *fakeSender) Send(_ context.Context, msg domain.NotificationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeFlexClient struct {
	mu           sync.Mutex
	listings     map[string]*marketplace.Listing
	transactions map[string]*marketplace.Transaction
	transitioned []string
	initiated    int
}

func newFakeFlexClient() *fakeFlexClient {
	return &fakeFlexClient{
		listings:     map[string]*marketplace.Listing{},
		transactions: map[string]*marketplace.Transaction{},
	}
}

func (f *fakeFlexClient) ShowListing(_ context.Context, id string) (*marketplace.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	return l, nil
}

func (f *fakeFlexClient) UpdateListingMetadata(_ context.Context, id string, metadata map[string]interface{}) (*marketplace.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		l = &marketplace.Listing{ID: id}
		f.listings[id] = l
	}
	l.Metadata = metadata
	return l, nil
}

func (f *fakeFlexClient) QueryListings(_ context.Context, _ map[string]string) ([]*marketplace.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*marketplace.Listing
	for _, l := range f.listings {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeFlexClient) ShowTransaction(_ context.Context, id string, _ []string) (*marketplace.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return tx, nil
}

func (f *fakeFlexClient) TransitionTransaction(_ context.Context, id string, transition domain.Transition, _ map[string]interface{}, _ []string) (*marketplace.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	tx.LastTransition = transition
	f.transitioned = append(f.transitioned, id+":"+string(transition))
	return tx, nil
}

func (f *fakeFlexClient) InitiateTransaction(_ context.Context, params marketplace.InitiateParams) (*marketplace.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiated++
	tx := &marketplace.Transaction{
		ID:             fmt.Sprintf("tx-new-%d", f.initiated),
		LastTransition: domain.TransitionInitiate,
		Metadata:       params.Metadata,
		ProtectedData:  params.ProtectedData,
		Booking: &marketplace.Booking{
			Start:        params.BookingStart,
			End:          params.BookingEnd,
			DisplayStart: params.DisplayStart,
			DisplayEnd:   params.DisplayEnd,
		},
	}
	f.transactions[tx.ID] = tx
	return tx, nil
}

func (f *fakeFlexClient) ShowUser(_ context.Context, id string) (*marketplace.User, error) {
	return &marketplace.User{ID: id}, nil
}

func (f *fakeFlexClient) UpdateUserProfile(_ context.Context, id string, metadata map[string]interface{}) (*marketplace.User, error) {
	return &marketplace.User{ID: id, Metadata: metadata}, nil
}

func (f *fakeFlexClient) ExchangeToken(_ context.Context, subAccountID string) (string, error) {
	return "token-" + subAccountID, nil
}
