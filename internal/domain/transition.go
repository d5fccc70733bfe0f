package domain

// Transition mirrors the marketplace backend's transition identifiers.
// The string values are stable wire values and must not be changed.
type Transition string

const (
	TransitionInitiate                     Transition = "initiate-transaction"
	TransitionExpiredStartDelivery         Transition = "expired-start-delivery"
	TransitionStartDelivery                Transition = "start-delivery"
	TransitionPartnerConfirmSubOrder       Transition = "partner-confirm-sub-order"
	TransitionPartnerRejectSubOrder        Transition = "partner-reject-sub-order"
	TransitionExpiredDelivery              Transition = "expired-delivery"
	TransitionOperatorCancelPlan           Transition = "operator-cancel-plan"
	TransitionOperatorCancelAfterRejected  Transition = "operator-cancel-after-partner-rejected"
	TransitionOperatorCancelAfterConfirmed Transition = "operator-cancel-after-partner-confirmed"
	TransitionCancelDelivery               Transition = "cancel-delivery"
	TransitionCompleteDelivery             Transition = "complete-delivery"
	TransitionRestaurantReview             Transition = "restaurant-review"
	TransitionRestaurantReviewAfterExpire  Transition = "restaurant-review-after-expire-time"
	TransitionExpiredReviewTime            Transition = "expired-review-time"
)

var allTransitions = map[Transition]struct{}{
	TransitionInitiate:                     {},
	TransitionExpiredStartDelivery:         {},
	TransitionStartDelivery:                {},
	TransitionPartnerConfirmSubOrder:       {},
	TransitionPartnerRejectSubOrder:        {},
	TransitionExpiredDelivery:              {},
	TransitionOperatorCancelPlan:           {},
	TransitionOperatorCancelAfterRejected:  {},
	TransitionOperatorCancelAfterConfirmed: {},
	TransitionCancelDelivery:               {},
	TransitionCompleteDelivery:             {},
	TransitionRestaurantReview:             {},
	TransitionRestaurantReviewAfterExpire:  {},
	TransitionExpiredReviewTime:            {},
}

// operatorCancelNext maps a sub-order's current transition to the
// cancellation the operator may issue from that state. States absent
// from the table cannot be canceled by this engine.
var operatorCancelNext = map[Transition]Transition{
	TransitionInitiate:               TransitionOperatorCancelPlan,
	TransitionPartnerConfirmSubOrder: TransitionOperatorCancelAfterConfirmed,
	TransitionPartnerRejectSubOrder:  TransitionOperatorCancelAfterRejected,
}

func (t Transition) Valid() bool {
	_, ok := allTransitions[t]
	return ok
}

// IsOperatorCancel reports whether t is one of the three
// cancellation-terminal transitions.
func (t Transition) IsOperatorCancel() bool {
	switch t {
	case TransitionOperatorCancelPlan,
		TransitionOperatorCancelAfterRejected,
		TransitionOperatorCancelAfterConfirmed:
		return true
	}
	return false
}

// IsSettled reports whether t represents a sub-order that needs no
// further progression: delivery completed or operator-canceled.
func (t Transition) IsSettled() bool {
	return t == TransitionCompleteDelivery || t.IsOperatorCancel()
}

// NextCancelTransition returns the cancellation to issue from the
// current transition. The second return value is false when no
// cancellation is possible from that state.
func NextCancelTransition(current Transition) (Transition, bool) {
	next, ok := operatorCancelNext[current]
	return next, ok
}
