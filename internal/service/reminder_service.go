package service

import (
	"context"
	"fmt"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"
	"purchase-patterns/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReminderConfig controls the reminder scan
type ReminderConfig struct {
	ActiveWindow time.Duration
	DaysAhead    int
	DedupTTL     time.Duration
}

// ScanResult summarises one reminder scan
type ScanResult struct {
	Users      int `json:"users"`
	Issued     int `json:"issued"`
	Suppressed int `json:"suppressed"`
	Failed     int `json:"failed"`
}

// ReminderService generates cycle reminders for active users and publishes the new ones
type ReminderService struct {
	patterns  *PatternService
	users     ActiveUserLister
	dedup     ReminderDeduper
	publisher ReminderPublisher
	config    ReminderConfig
	logger    *zap.Logger
}

// NewReminderService creates a new reminder service
func NewReminderService(
	patterns *PatternService,
	users ActiveUserLister,
	dedup ReminderDeduper,
	publisher ReminderPublisher,
	config ReminderConfig,
) *ReminderService {
	return &ReminderService{
		patterns:  patterns,
		users:     users,
		dedup:     dedup,
		publisher: publisher,
		config:    config,
		logger:    util.GetLogger(),
	}
}

// Scan generates reminders at now for every user active within the configured window.
// A failing user is logged and skipped.
func (s *ReminderService) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	ctx, span := util.StartSpan(ctx, "ReminderService.Scan")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReminderScanDuration.Observe(time.Since(start).Seconds())
	}()

	var result ScanResult
	users, err := s.users.ListActiveUsers(ctx, now.Add(-s.config.ActiveWindow))
	if err != nil {
		util.RecordError(span, err)
		return result, fmt.Errorf("failed to list active users: %w", err)
	}
	result.Users = len(users)

	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		issued, suppressed, err := s.scanUser(ctx, userID, now)
		result.Issued += issued
		result.Suppressed += suppressed
		if err != nil {
			result.Failed++
			s.logger.Error("Reminder scan failed for user", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.logger.Info("Reminder scan completed",
		zap.Int("users", result.Users),
		zap.Int("issued", result.Issued),
		zap.Int("suppressed", result.Suppressed),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *ReminderService) scanUser(ctx context.Context, userID string, now time.Time) (int, int, error) {
	reminders, err := s.patterns.Reminders(ctx, userID, now, s.config.DaysAhead)
	if err != nil {
		return 0, 0, err
	}

	issued, suppressed := 0, 0
	for _, r := range reminders {
		send, err := s.dedup.MarkReminderSent(ctx, userID, r, patterns.UrgencyRank(r.UrgencyLevel), s.config.DedupTTL)
		if err != nil {
			return issued, suppressed, fmt.Errorf("failed to dedup reminder: %w", err)
		}
		if !send {
			suppressed++
			util.RemindersSuppressedTotal.Inc()
			continue
		}

		event := &models.ReorderReminderEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeReorderReminder,
				Timestamp: time.Now(),
			},
			UserID:   userID,
			Reminder: r,
		}
		if err := s.publisher.PublishReorderReminder(ctx, event); err != nil {
			return issued, suppressed, fmt.Errorf("failed to publish reminder: %w", err)
		}

		issued++
		util.RemindersIssuedTotal.WithLabelValues(r.UrgencyLevel).Inc()
	}
	return issued, suppressed, nil
}
