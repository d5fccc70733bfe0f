package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/notify"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/queue"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/repo"
)

// NotificationService is both sides of the notification outbox: the
// orchestrators enqueue messages fire-and-forget, the dispatch worker
// drains the queue through Dispatch.
type NotificationService struct {
	broker           queue.Broker
	notificationRepo repo.NotificationRepository
	sender           notify.Sender
	logger           *zap.SugaredLogger
}

func NewNotificationService(
	broker queue.Broker,
	notificationRepo repo.NotificationRepository,
	sender notify.Sender,
	logger *zap.SugaredLogger,
) *NotificationService {
	return &NotificationService{
		broker:           broker,
		notificationRepo: notificationRepo,
		sender:           sender,
		logger:           logger,
	}
}

// Enqueue publishes a message on the dispatch queue. Failures are
// logged and swallowed: a missed notification never blocks the
// cascade that produced it.
func (s *NotificationService) Enqueue(ctx context.Context, msg domain.NotificationMessage) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Errorw("failed to marshal notification", "type", msg.Type, "error", err)
		return
	}

	if err := s.broker.Publish(ctx, queue.QueueNotificationDispatch, body); err != nil {
		s.logger.Errorw("failed to enqueue notification",
			"type", msg.Type, "recipient_id", msg.RecipientID, "error", err)
		return
	}

	s.logger.Infow("notification enqueued",
		"type", msg.Type, "channel", msg.Channel, "recipient_id", msg.RecipientID)
}

// Dispatch delivers one dequeued message through the channel sender
// and, for the in-app channel, persists the notification record.
// Errors bubble up so the broker can retry or dead-letter the message.
func (s *NotificationService) Dispatch(ctx context.Context, msg domain.NotificationMessage) error {
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification %s: %w", msg.ID, err)
	}

	if msg.Channel == domain.ChannelInApp {
		notification := &domain.Notification{
			MessageID:    msg.ID,
			RecipientID:  msg.RecipientID,
			Type:         msg.Type,
			OrderID:      msg.OrderID,
			SubOrderDate: msg.SubOrderDate,
			Payload:      msg.Payload,
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			return fmt.Errorf("failed to persist notification %s: %w", msg.ID, err)
		}
	}

	s.logger.Infow("notification dispatched",
		"id", msg.ID, "type", msg.Type, "channel", msg.Channel)

	return nil
}
