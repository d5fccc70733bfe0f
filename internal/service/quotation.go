package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/repo"
)

const quotationSequence = "quotation-code"

type QuotationService struct {
	quotationRepo repo.QuotationRepository
	orderRepo     repo.OrderRepository
	sequences     repo.SequenceRepository
	logger        *zap.SugaredLogger
}

func NewQuotationService(
	quotationRepo repo.QuotationRepository,
	orderRepo repo.OrderRepository,
	sequences repo.SequenceRepository,
	logger *zap.SugaredLogger,
) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		orderRepo:     orderRepo,
		sequences:     sequences,
		logger:        logger,
	}
}

type CreateQuotationParams struct {
	OrderID   string
	CompanyID string
	Client    domain.ClientQuote
	Partners  map[string]domain.PartnerQuote
}

// InitiateQuotation builds both quotation views from the plan's picked
// food: the partner view grouped by provider, the client view by date
// alone. Sub-orders with nothing selected are excluded.
func (s *QuotationService) InitiateQuotation(ctx context.Context, orderID, companyID string, plan *domain.Plan) (*domain.Quotation, error) {
	client := domain.ClientQuote{Quotation: map[string][]domain.LineItem{}}
	partners := map[string]domain.PartnerQuote{}

	for dateKey, so := range plan.OrderDetail {
		items := so.PickedFoods()
		if len(items) == 0 {
			continue
		}

		client.Quotation[dateKey] = items

		pq, ok := partners[so.Restaurant.ID]
		if !ok {
			pq = domain.PartnerQuote{
				Name:      so.Restaurant.Name,
				Quotation: map[string][]domain.LineItem{},
			}
		}
		pq.Quotation[dateKey] = items
		partners[so.Restaurant.ID] = pq
	}

	return s.CreateQuotation(ctx, CreateQuotationParams{
		OrderID:   orderID,
		CompanyID: companyID,
		Client:    client,
		Partners:  partners,
	})
}

// CreateQuotation allocates the next quotation code, stores the new
// quotation as the order's single active one and repoints the order at
// it. The supersede is transactional; the order update is best-effort
// ordering against a separate store.
func (s *QuotationService) CreateQuotation(ctx context.Context, params CreateQuotationParams) (*domain.Quotation, error) {
	seq, err := s.sequences.Next(ctx, quotationSequence)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate quotation code: %w", err)
	}

	quotation := &domain.Quotation{
		Code:      fmt.Sprintf("PCC%06d", seq),
		OrderID:   params.OrderID,
		CompanyID: params.CompanyID,
		Client:    params.Client,
		Partners:  params.Partners,
	}

	if err := s.quotationRepo.Supersede(ctx, quotation); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	order, err := s.orderRepo.GetByID(ctx, params.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", params.OrderID, err)
	}

	order.QuotationID = quotation.ID.Hex()
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to point order at quotation %s: %w", quotation.Code, err)
	}

	s.logger.Infow("quotation created",
		"code", quotation.Code, "order_id", params.OrderID, "partners", len(params.Partners))

	return quotation, nil
}
