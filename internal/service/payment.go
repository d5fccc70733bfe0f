package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/pricing"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/repo"
)

// PaymentSyncService keeps payment records consistent with the current
// active quotation. A recomputed total of zero deletes the record
// instead of zeroing it.
type PaymentSyncService struct {
	paymentRepo repo.PaymentRecordRepository
	logger      *zap.SugaredLogger
}

func NewPaymentSyncService(paymentRepo repo.PaymentRecordRepository, logger *zap.SugaredLogger) *PaymentSyncService {
	return &PaymentSyncService{
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// SyncPartner reconciles one provider's record for one sub-order date
// against the quotation's provider view.
func (s *PaymentSyncService) SyncPartner(ctx context.Context, order *domain.Order, quotation *domain.Quotation, partnerID, subOrderDate string) error {
	var view map[string][]domain.LineItem
	if pq, ok := quotation.Partners[partnerID]; ok {
		view = pq.Quotation
	}

	breakdown := pricing.Calculate(pricing.Params{
		Quotation:            view,
		Date:                 subOrderDate,
		PartnerFlow:          true,
		VATPercentage:        order.VATPercentage,
		ServiceFeePercentage: order.ServiceFeeFor(partnerID),
		SkipVAT:              order.PartnerVATSettings[partnerID] == domain.VATSettingDirect,
	})

	existing, err := s.paymentRepo.GetPartnerRecord(ctx, order.ID, partnerID, subOrderDate)
	missing := errors.Is(err, domain.ErrNotFound)
	if err != nil && !missing {
		return fmt.Errorf("failed to look up partner payment record: %w", err)
	}

	if breakdown.TotalWithVAT <= 0 {
		if missing {
			return nil
		}
		if err := s.paymentRepo.Delete(ctx, existing.ID); err != nil {
			return fmt.Errorf("failed to delete drained partner payment record: %w", err)
		}
		s.logger.Infow("partner payment record deleted",
			"order_id", order.ID, "partner_id", partnerID, "sub_order_date", subOrderDate)
		return nil
	}

	if missing {
		record := &domain.PaymentRecord{
			PaymentType:  domain.PaymentTypePartner,
			OrderID:      order.ID,
			PartnerID:    partnerID,
			SubOrderDate: subOrderDate,
			TotalPrice:   breakdown.TotalWithVAT,
		}
		if err := s.paymentRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create partner payment record: %w", err)
		}
		return nil
	}

	if err := s.paymentRepo.UpdateTotalPrice(ctx, existing.ID, breakdown.TotalWithVAT); err != nil {
		return fmt.Errorf("failed to update partner payment record: %w", err)
	}

	return nil
}

// SyncClient reconciles the order's single client record against the
// quotation's full client view.
func (s *PaymentSyncService) SyncClient(ctx context.Context, order *domain.Order, quotation *domain.Quotation) error {
	breakdown := pricing.Calculate(pricing.Params{
		Quotation:         quotation.Client.Quotation,
		VATPercentage:     order.VATPercentage,
		PackagePerMember:  order.PackagePerMember,
		HasSpecificPCCFee: order.HasSpecificPCCFee,
		SpecificPCCFee:    order.SpecificPCCFee,
	})

	existing, err := s.paymentRepo.GetClientRecord(ctx, order.ID)
	missing := errors.Is(err, domain.ErrNotFound)
	if err != nil && !missing {
		return fmt.Errorf("failed to look up client payment record: %w", err)
	}

	if breakdown.TotalWithVAT == 0 {
		if missing {
			return nil
		}
		if err := s.paymentRepo.Delete(ctx, existing.ID); err != nil {
			return fmt.Errorf("failed to delete drained client payment record: %w", err)
		}
		s.logger.Infow("client payment record deleted", "order_id", order.ID)
		return nil
	}

	if missing {
		record := &domain.PaymentRecord{
			PaymentType: domain.PaymentTypeClient,
			OrderID:     order.ID,
			TotalPrice:  breakdown.TotalWithVAT,
		}
		if err := s.paymentRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create client payment record: %w", err)
		}
		return nil
	}

	if err := s.paymentRepo.UpdateTotalPrice(ctx, existing.ID, breakdown.TotalWithVAT); err != nil {
		return fmt.Errorf("failed to update client payment record: %w", err)
	}

	return nil
}
