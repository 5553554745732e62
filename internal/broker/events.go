package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"mall-bot/internal/models"
	"mall-bot/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing purchase events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPurchaseEvent publishes a purchase outcome keyed by conversation,
// so one conversation's events stay ordered on a single partition.
func (ep *EventPublisher) PublishPurchaseEvent(ctx context.Context, event *models.PurchaseEvent) error {
	key := fmt.Sprintf("conversation-%s", event.ConversationID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onPurchaseEvent func(context.Context, *models.PurchaseEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger().Named("events")}
}

// OnPurchaseEvent registers a handler for every purchase event type
func (eh *EventHandler) OnPurchaseEvent(handler func(context.Context, *models.PurchaseEvent) error) {
	eh.onPurchaseEvent = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypePurchaseSubmitted,
		models.EventTypePurchaseFailed,
		models.EventTypePurchaseCancelled,
		models.EventTypePurchaseAborted:
		if eh.onPurchaseEvent != nil {
			var event models.PurchaseEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
			}
			return eh.onPurchaseEvent(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
