package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentType string

const (
	PaymentTypeClient  PaymentType = "client"
	PaymentTypePartner PaymentType = "partner"
)

// PaymentRecord is one persisted billing line: the single client
// record of an order, or one provider's record for one sub-order date.
// A partner record's TotalPrice is always the VAT-inclusive total from
// the current active quotation; a total that drops to zero deletes the
// record instead of zeroing it.
type PaymentRecord struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PaymentType       PaymentType        `bson:"payment_type" json:"paymentType"`
	OrderID           string             `bson:"order_id" json:"orderId"`
	PartnerID         string             `bson:"partner_id,omitempty" json:"partnerId,omitempty"`
	SubOrderDate      string             `bson:"sub_order_date,omitempty" json:"subOrderDate,omitempty"`
	TotalPrice        int64              `bson:"total_price" json:"totalPrice"`
	IsHideFromHistory bool               `bson:"is_hide_from_history" json:"isHideFromHistory"`
	IsAdminConfirmed  bool               `bson:"is_admin_confirmed" json:"isAdminConfirmed"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
}
