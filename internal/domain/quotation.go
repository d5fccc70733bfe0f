package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuotationStatus string

const (
	QuotationStatusActive   QuotationStatus = "active"
	QuotationStatusInactive QuotationStatus = "inactive"
)

// ClientQuote is the client-facing view of a quotation: line items
// grouped only by date.
type ClientQuote struct {
	Quotation map[string][]LineItem `bson:"quotation" json:"quotation"`
}

// PartnerQuote is one provider's slice of a quotation.
type PartnerQuote struct {
	Name      string                `bson:"name" json:"name"`
	Quotation map[string][]LineItem `bson:"quotation" json:"quotation"`
}

// Quotation is an immutable-once-published priced snapshot of the
// selected food. Pricing-relevant changes supersede it with a new
// record instead of mutating it.
type Quotation struct {
	ID        primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	Code      string                  `bson:"code" json:"code"`
	OrderID   string                  `bson:"order_id" json:"orderId"`
	CompanyID string                  `bson:"company_id" json:"companyId"`
	Status    QuotationStatus         `bson:"status" json:"status"`
	Client    ClientQuote             `bson:"client" json:"client"`
	Partners  map[string]PartnerQuote `bson:"partners" json:"partner"`
	CreatedAt time.Time               `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time               `bson:"updated_at" json:"updatedAt"`
}

// OmitDate returns a copy of the client and partner views with every
// line item of the given date removed. The receiver is not mutated.
func (q *Quotation) OmitDate(dateKey string) (ClientQuote, map[string]PartnerQuote) {
	client := ClientQuote{Quotation: map[string][]LineItem{}}
	for date, items := range q.Client.Quotation {
		if date == dateKey {
			continue
		}
		client.Quotation[date] = items
	}

	partners := map[string]PartnerQuote{}
	for partnerID, pq := range q.Partners {
		trimmed := PartnerQuote{Name: pq.Name, Quotation: map[string][]LineItem{}}
		for date, items := range pq.Quotation {
			if date == dateKey {
				continue
			}
			trimmed.Quotation[date] = items
		}
		if len(trimmed.Quotation) == 0 {
			continue
		}
		partners[partnerID] = trimmed
	}

	return client, partners
}
