package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/scan-track-service/internal/events"
)

// NotificationService surfaces domain events to the operational log so a
// shift lead can follow scanning activity without querying the database.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderCreated, n.handleEvent("OrderCreated"))
	n.dispatcher.Subscribe(events.EventOrderDeleted, n.handleEvent("OrderDeleted"))
	n.dispatcher.Subscribe(events.EventOrderStatusChanged, n.handleEvent("OrderStatusChanged"))
	n.dispatcher.Subscribe(events.EventBoardAdded, n.handleEvent("BoardAdded"))
	n.dispatcher.Subscribe(events.EventScanFinalized, n.handleEvent("ScanFinalized"))
	n.dispatcher.Subscribe(events.EventScanEdited, n.handleEvent("ScanEdited"))
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleEvent("CommentAdded"))
}

func (n *NotificationService) handleEvent(name string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("order_id", event.OrderID),
			zap.String("actor", event.Actor.Username),
			zap.Any("payload", event.Payload),
		)
		return nil
	}
}
