package domain

import "time"

type OrderState string

const (
	OrderStateDraft            OrderState = "draft"
	OrderStatePendingApproval  OrderState = "pendingApproval"
	OrderStatePicking          OrderState = "picking"
	OrderStateInProgress       OrderState = "inProgress"
	OrderStatePendingPayment   OrderState = "pendingPayment"
	OrderStateCompleted        OrderState = "completed"
	OrderStateReviewed         OrderState = "reviewed"
	OrderStateCanceled         OrderState = "canceled"
	OrderStateCanceledByBooker OrderState = "canceledByBooker"
	OrderStateExpiredStart     OrderState = "expiredStart"
)

type OrderType string

const (
	OrderTypeGroup  OrderType = "group"
	OrderTypeNormal OrderType = "normal"
)

// Recognized provider VAT settings. Providers declaring anything else
// are snapshotted with VATSettingVAT.
const (
	VATSettingVAT         = "vat"
	VATSettingNoExportVAT = "noExportVat"
	VATSettingDirect      = "direct"
)

type StateHistoryEntry struct {
	State     OrderState `json:"state"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Order is the aggregate root for one client's weekly meal program. It
// is stored as listing metadata on the marketplace backend.
type Order struct {
	ID                      string              `json:"id"`
	State                   OrderState          `json:"orderState"`
	StateHistory            []StateHistoryEntry `json:"orderStateHistory"`
	CompanyID               string              `json:"companyId"`
	BookerID                string              `json:"bookerId"`
	PlanIDs                 []string            `json:"plans"`
	QuotationID             string              `json:"quotationId"`
	OrderType               OrderType           `json:"orderType"`
	VATPercentage           float64             `json:"orderVATPercentage"`
	ServiceFees             map[string]float64  `json:"serviceFees"`
	HasSpecificPCCFee       bool                `json:"hasSpecificPCCFee"`
	SpecificPCCFee          int64               `json:"specificPCCFee"`
	PackagePerMember        int64               `json:"packagePerMember"`
	PartnerIDs              []string            `json:"partnerIds"`
	PartnerVATSettings      map[string]string   `json:"vatSettings"`
	DeliveryHour            int                 `json:"deliveryHour"`
	IsClientSufficientPaid  bool                `json:"isClientSufficientPaid"`
	IsPartnerSufficientPaid bool                `json:"isPartnerSufficientPaid"`
}

// PushState moves the order to state and appends the matching history
// entry, keeping the history's last entry equal to the current state.
func (o *Order) PushState(state OrderState) {
	o.State = state
	o.StateHistory = append(o.StateHistory, StateHistoryEntry{
		State:     state,
		UpdatedAt: time.Now(),
	})
}

// HasReachedInProgress reports whether the order ever entered the
// inProgress state, regardless of its current state.
func (o *Order) HasReachedInProgress() bool {
	if o.State == OrderStateInProgress {
		return true
	}
	for _, entry := range o.StateHistory {
		if entry.State == OrderStateInProgress {
			return true
		}
	}
	return false
}

// ServiceFeeFor returns the service fee fraction agreed with one
// provider, zero when none was set.
func (o *Order) ServiceFeeFor(partnerID string) float64 {
	if o.ServiceFees == nil {
		return 0
	}
	return o.ServiceFees[partnerID]
}
