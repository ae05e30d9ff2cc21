package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishReorderReminder publishes ReorderReminder event
func (ep *EventPublisher) PublishReorderReminder(ctx context.Context, event *models.ReorderReminderEvent) error {
	return ep.producer.PublishEvent(ctx, userKey(event.UserID), event.EventType, event)
}

// PublishFeedbackAdded publishes FeedbackAdded event
func (ep *EventPublisher) PublishFeedbackAdded(ctx context.Context, event *models.FeedbackAddedEvent) error {
	return ep.producer.PublishEvent(ctx, userKey(event.UserID), event.EventType, event)
}

func userKey(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

// EventHandler handles incoming events
type EventHandler struct {
	onOrderPlaced func(context.Context, *models.OrderPlacedEvent) error
	logger        *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnOrderPlaced registers a handler for OrderPlaced events
func (eh *EventHandler) OnOrderPlaced(handler func(context.Context, *models.OrderPlacedEvent) error) {
	eh.onOrderPlaced = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if eventType, ok := headerValue(msg, eventTypeHeader); ok && eventType != models.EventTypeOrderPlaced {
		eh.logger.Debug("Skipping event by header", zap.String("event_type", eventType))
		return nil
	}

	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderPlaced:
		if eh.onOrderPlaced != nil {
			var event models.OrderPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPlaced event: %w", err)
			}
			return eh.onOrderPlaced(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}

func headerValue(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
