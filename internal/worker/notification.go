package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/queue"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/service"
)

type NotificationDispatchWorker struct {
	notifications *service.NotificationService
	broker        queue.Broker
	logger        *zap.SugaredLogger
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewNotificationDispatchWorker(
	notifications *service.NotificationService,
	broker queue.Broker,
	logger *zap.SugaredLogger,
) *NotificationDispatchWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &NotificationDispatchWorker{
		notifications: notifications,
		broker:        broker,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (w *NotificationDispatchWorker) Start() error {
	w.logger.Info("starting notification dispatch worker")

	return w.broker.Subscribe(w.ctx, queue.QueueNotificationDispatch, w.handleMessage)
}

func (w *NotificationDispatchWorker) Stop() {
	w.logger.Info("stopping notification dispatch worker")
	w.cancel()
}

func (w *NotificationDispatchWorker) handleMessage(ctx context.Context, message []byte) error {
	var msg domain.NotificationMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		w.logger.Errorw("failed to unmarshal notification message", "error", err)
		return fmt.Errorf("failed to unmarshal notification message: %w", err)
	}

	w.logger.Infow("processing notification message", "id", msg.ID, "type", msg.Type)

	if err := w.notifications.Dispatch(ctx, msg); err != nil {
		w.logger.Errorw("failed to dispatch notification", "id", msg.ID, "error", err)
		return err
	}

	return nil
}
