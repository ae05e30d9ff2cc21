package models

import "time"

// Event types
const (
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeReorderReminder = "REORDER_REMINDER"
	EventTypeFeedbackAdded   = "REORDER_FEEDBACK_ADDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is consumed when a customer completes an order
type OrderPlacedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Order  Order  `json:"order"`
}

// ReorderReminderEvent is published for each reminder that should reach the customer
type ReorderReminderEvent struct {
	BaseEvent
	UserID   string   `json:"user_id"`
	Reminder Reminder `json:"reminder"`
}

// FeedbackAddedEvent is published when a customer corrects a suggested interval
type FeedbackAddedEvent struct {
	BaseEvent
	UserID   string          `json:"user_id"`
	Feedback ReorderFeedback `json:"feedback"`
}
