package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification channels.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelInApp = "app"
)

// Notification types.
const (
	NotificationBookerSubOrderCanceled      = "booker.sub_order_canceled"
	NotificationParticipantSubOrderCanceled = "participant.sub_order_canceled"
	NotificationPartnerSubOrderCanceled     = "partner.sub_order_canceled"
	NotificationPartnerSubOrderCreated      = "partner.sub_order_created"
)

// NotificationMessage is the outbox payload published on the
// notification-dispatch queue. Delivery is fire-and-forget for the
// publisher; the dispatch worker owns retries and the DLQ.
type NotificationMessage struct {
	ID           string                 `json:"id"`
	Channel      string                 `json:"channel"`
	Type         string                 `json:"type"`
	RecipientID  string                 `json:"recipient_id"`
	OrderID      string                 `json:"order_id"`
	SubOrderDate string                 `json:"sub_order_date,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Notification is the persisted in-app record the dispatch worker
// writes for application-channel messages.
type Notification struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	MessageID    string                 `bson:"message_id" json:"messageId"`
	RecipientID  string                 `bson:"recipient_id" json:"recipientId"`
	Type         string                 `bson:"type" json:"type"`
	OrderID      string                 `bson:"order_id" json:"orderId"`
	SubOrderDate string                 `bson:"sub_order_date,omitempty" json:"subOrderDate,omitempty"`
	Payload      map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	IsRead       bool                   `bson:"is_read" json:"isRead"`
	CreatedAt    time.Time              `bson:"created_at" json:"createdAt"`
}
