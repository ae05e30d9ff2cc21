package service

import (
	"context"
	"time"

	"purchase-patterns/internal/models"
)

// HistoryStore is the durable purchase history
type HistoryStore interface {
	GetPurchaseHistory(ctx context.Context, userID string) (*models.PurchaseHistory, error)
	AddReorderFeedback(ctx context.Context, userID string, fb *models.ReorderFeedback) error
	SetSeasonalPatterns(ctx context.Context, userID, season string, skus []string) error
}

// HistoryCache caches purchase histories between order events
type HistoryCache interface {
	GetHistory(ctx context.Context, userID string) (*models.PurchaseHistory, bool, error)
	SetHistory(ctx context.Context, h *models.PurchaseHistory, ttl time.Duration) error
	InvalidateHistory(ctx context.Context, userID string) error
}

// FeedbackPublisher announces recorded feedback
type FeedbackPublisher interface {
	PublishFeedbackAdded(ctx context.Context, event *models.FeedbackAddedEvent) error
}

// ReminderPublisher delivers reminders to the notification pipeline
type ReminderPublisher interface {
	PublishReorderReminder(ctx context.Context, event *models.ReorderReminderEvent) error
}

// ReminderDeduper remembers which reminders were already sent
type ReminderDeduper interface {
	MarkReminderSent(ctx context.Context, userID string, r models.Reminder, rank int, ttl time.Duration) (bool, error)
}

// ActiveUserLister lists the users worth scanning for reminders
type ActiveUserLister interface {
	ListActiveUsers(ctx context.Context, since time.Time) ([]string, error)
}

// OrderStore persists incoming orders exactly once per event
type OrderStore interface {
	SaveOrder(ctx context.Context, userID string, order models.Order) (bool, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// OrderGraph mirrors orders into the relationship graph
type OrderGraph interface {
	RecordOrder(ctx context.Context, userID string, order models.Order) error
}
