package domain

import (
	"strconv"
	"time"
)

// Member food selection statuses.
const (
	MemberOrderStatusJoined    = "joined"
	MemberOrderStatusNotJoined = "notJoined"
	MemberOrderStatusExpired   = "expired"
)

// Food is one entry of a provider's catalogue.
type Food struct {
	Name  string `json:"foodName"`
	Price int64  `json:"foodPrice"`
}

// RestaurantRef points at the provider serving one sub-order along
// with the catalogue snapshot the selections were made against.
type RestaurantRef struct {
	ID            string          `json:"id"`
	Name          string          `json:"restaurantName"`
	FoodCatalogue map[string]Food `json:"foodList"`
}

// MemberOrder is one participant's selection for one date.
type MemberOrder struct {
	FoodID string `json:"foodId"`
	Status string `json:"status"`
}

// LineItem is one priced row of a quotation view: a food, its unit
// price and how many times it was picked on the date in scope.
type LineItem struct {
	FoodID    string `json:"id"`
	FoodName  string `json:"name"`
	FoodPrice int64  `json:"foodPrice"`
	Frequency int    `json:"frequency"`
}

// SubOrderSnapshot is one prior state of a sub-order, pushed onto the
// audit stack before an edit or cancellation mutates it.
type SubOrderSnapshot struct {
	TransactionID  string     `json:"transactionId,omitempty"`
	LastTransition Transition `json:"lastTransition,omitempty"`
	LineItems      []LineItem `json:"lineItems,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// SubOrder is one date's provider-bound unit of the plan.
// LastTransition is set if and only if TransactionID is set.
type SubOrder struct {
	Restaurant       RestaurantRef          `json:"restaurant"`
	MemberOrders     map[string]MemberOrder `json:"memberOrders,omitempty"`
	AnonymousOrders  map[string]MemberOrder `json:"anonymousOrders,omitempty"`
	LineItems        []LineItem             `json:"lineItems,omitempty"`
	TransactionID    string                 `json:"transactionId,omitempty"`
	LastTransition   Transition             `json:"lastTransition,omitempty"`
	IsEditedDraft    bool                   `json:"isEditedDraft,omitempty"`
	OldValues        []SubOrderSnapshot     `json:"oldValues,omitempty"`
	IsLastTxOfPlan   bool                   `json:"isLastTxOfPlan,omitempty"`
	DeliveryAgentID  string                 `json:"deliveryAgentId,omitempty"`
	DeliveryNote     string                 `json:"deliveryNote,omitempty"`
}

// Plan holds one sub-order per calendar date for an order. Keys of
// OrderDetail are day-start timestamps in milliseconds, stringified.
type Plan struct {
	ID          string              `json:"id"`
	OrderID     string              `json:"orderId"`
	OrderDetail map[string]SubOrder `json:"orderDetail"`
}

// DayStart truncates t to the start of its calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DateKey renders the day-start of t in loc as a millisecond
// timestamp string, the format OrderDetail and quotation views key on.
func DateKey(t time.Time, loc *time.Location) string {
	return strconv.FormatInt(DayStart(t, loc).UnixMilli(), 10)
}

// PickedFoods derives the priced line items for a sub-order: selections
// with status joined grouped by food, or the flat line items for
// normal (non-group) orders.
func (so *SubOrder) PickedFoods() []LineItem {
	if len(so.MemberOrders) == 0 && len(so.AnonymousOrders) == 0 {
		return so.LineItems
	}

	frequency := map[string]int{}
	for _, mo := range so.MemberOrders {
		if mo.Status == MemberOrderStatusJoined && mo.FoodID != "" {
			frequency[mo.FoodID]++
		}
	}
	for _, mo := range so.AnonymousOrders {
		if mo.Status == MemberOrderStatusJoined && mo.FoodID != "" {
			frequency[mo.FoodID]++
		}
	}

	items := make([]LineItem, 0, len(frequency))
	for foodID, freq := range frequency {
		food := so.Restaurant.FoodCatalogue[foodID]
		items = append(items, LineItem{
			FoodID:    foodID,
			FoodName:  food.Name,
			FoodPrice: food.Price,
			Frequency: freq,
		})
	}

	return items
}

// Participants returns the ids of every registered and anonymous
// member who picked a food on this sub-order.
func (so *SubOrder) Participants() []string {
	var ids []string
	for id, mo := range so.MemberOrders {
		if mo.Status == MemberOrderStatusJoined && mo.FoodID != "" {
			ids = append(ids, id)
		}
	}
	for id, mo := range so.AnonymousOrders {
		if mo.Status == MemberOrderStatusJoined && mo.FoodID != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsEmpty reports whether the sub-order carries no selected food and
// no transaction; such sub-orders are excluded from quotation and
// payment generation.
func (so *SubOrder) IsEmpty() bool {
	return len(so.PickedFoods()) == 0 && so.TransactionID == ""
}

// PartnerIDs returns the deduplicated set of providers referenced by
// the plan's non-empty sub-orders.
func (p *Plan) PartnerIDs() []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, so := range p.OrderDetail {
		if so.Restaurant.ID == "" {
			continue
		}
		if _, ok := seen[so.Restaurant.ID]; ok {
			continue
		}
		seen[so.Restaurant.ID] = struct{}{}
		ids = append(ids, so.Restaurant.ID)
	}
	return ids
}
