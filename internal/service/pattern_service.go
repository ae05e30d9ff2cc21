package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"
	"purchase-patterns/internal/source"
	"purchase-patterns/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PatternService answers pattern questions for a user by loading their history and
// running the engines over it
type PatternService struct {
	store     HistoryStore
	cache     HistoryCache
	publisher FeedbackPublisher
	usual     *patterns.UsualBasketEngine
	cycles    *patterns.ReorderCycleEngine
	selector  *source.Selector
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewPatternService creates a new pattern service. cache and publisher may be nil.
func NewPatternService(
	store HistoryStore,
	cache HistoryCache,
	publisher FeedbackPublisher,
	usual *patterns.UsualBasketEngine,
	cycles *patterns.ReorderCycleEngine,
	selector *source.Selector,
	cacheTTL time.Duration,
) *PatternService {
	return &PatternService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		usual:     usual,
		cycles:    cycles,
		selector:  selector,
		cacheTTL:  cacheTTL,
		logger:    util.GetLogger(),
	}
}

// History loads the purchase history of a user, from cache when possible
func (s *PatternService) History(ctx context.Context, userID string) (*models.PurchaseHistory, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.History")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, models.ErrInvalidUserID
	}
	span.SetAttributes(util.UserAttr(userID))

	if s.cache != nil {
		h, ok, err := s.cache.GetHistory(ctx, userID)
		switch {
		case err != nil:
			util.CacheRequestsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("History cache lookup failed", zap.String("user_id", userID), zap.Error(err))
		case ok:
			util.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return h, nil
		default:
			util.CacheRequestsTotal.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	h, err := s.store.GetPurchaseHistory(ctx, userID)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	util.HistoryLoadLatency.Observe(time.Since(start).Seconds())
	util.HistoryOrdersLoaded.Observe(float64(len(h.Orders)))

	if s.cache != nil {
		if err := s.cache.SetHistory(ctx, h, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache history", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return h, nil
}

func observe(operation string, start time.Time) {
	util.EngineLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// UsualItems returns the usual items of a user and the source that produced them
func (s *PatternService) UsualItems(ctx context.Context, userID string) ([]models.UsualItem, string, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.UsualItems")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	defer observe("usual_items", time.Now())
	items, name := s.selector.UsualItems(ctx, h)
	return items, name, nil
}

// UsualBasket builds the one-tap basket. A negative threshold (patterns.UseDefault) uses the configured one.
func (s *PatternService) UsualBasket(ctx context.Context, userID string, threshold float64) (models.UsualBasket, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.UsualBasket")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return models.UsualBasket{}, err
	}
	if threshold < 0 {
		threshold = s.usual.Config().ConfidenceThreshold
	}

	defer observe("usual_basket", time.Now())
	return s.usual.CreateUsualBasket(h, threshold), nil
}

// ModifyUsualBasket builds the basket and applies quantity changes to it
func (s *PatternService) ModifyUsualBasket(ctx context.Context, userID string, threshold float64, modifications map[string]int) (models.UsualBasket, error) {
	for _, qty := range modifications {
		if qty < 0 {
			return models.UsualBasket{}, models.ErrInvalidQuantity
		}
	}
	basket, err := s.UsualBasket(ctx, userID, threshold)
	if err != nil {
		return models.UsualBasket{}, err
	}
	return s.usual.ModifyUsualQuantities(basket, modifications), nil
}

// ShoppingPatterns learns the cadence, staples and intervals of a user
func (s *PatternService) ShoppingPatterns(ctx context.Context, userID string) (models.ShoppingPatterns, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.ShoppingPatterns")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return models.ShoppingPatterns{}, err
	}

	defer observe("shopping_patterns", time.Now())
	return s.usual.LearnShoppingPatterns(h), nil
}

// ReorderSuggestions returns the items a user is likely running low on at now
func (s *PatternService) ReorderSuggestions(ctx context.Context, userID string, now time.Time) ([]models.ReorderSuggestion, string, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.ReorderSuggestions")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	defer observe("reorder_suggestions", time.Now())
	suggestions, name := s.selector.ReorderSuggestions(ctx, h, now)
	return suggestions, name, nil
}

// SeasonalItems returns the usual items flagged for season
func (s *PatternService) SeasonalItems(ctx context.Context, userID, season string) ([]models.SeasonalUsualItem, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.SeasonalItems")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer observe("seasonal_items", time.Now())
	return s.usual.GetSeasonalUsualItems(h, season), nil
}

// ReorderCycles returns the learned cycle of every SKU bought at least twice
func (s *PatternService) ReorderCycles(ctx context.Context, userID string) (map[string]models.ReorderCycle, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.ReorderCycles")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer observe("reorder_cycles", time.Now())
	return s.cycles.CalculateReorderCycles(h), nil
}

// DueForReorder returns the items due within a week of now
func (s *PatternService) DueForReorder(ctx context.Context, userID string, now time.Time) ([]models.DueItem, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.DueForReorder")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer observe("due_for_reorder", time.Now())
	return s.cycles.GetDueForReorder(h, now), nil
}

// Reminders returns the cycle reminders for the daysAhead days starting at now.
// A negative daysAhead (patterns.UseDefault) uses the configured horizon; zero yields none.
func (s *PatternService) Reminders(ctx context.Context, userID string, now time.Time, daysAhead int) ([]models.Reminder, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.Reminders")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	if daysAhead < 0 {
		daysAhead = s.usual.Config().ReminderDaysAhead
	}

	defer observe("reminders", time.Now())
	return s.cycles.GenerateReminders(h, now, daysAhead), nil
}

// Bundles groups items with similar cycles into combined orders
func (s *PatternService) Bundles(ctx context.Context, userID string) ([]models.Bundle, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.Bundles")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer observe("bundles", time.Now())
	return s.cycles.SuggestReorderBundles(h), nil
}

// PredictReorderDate predicts the next order date of sku for the given season
func (s *PatternService) PredictReorderDate(ctx context.Context, userID, sku, season string) (models.ReorderPrediction, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.PredictReorderDate")
	defer span.End()

	if strings.TrimSpace(sku) == "" {
		return models.ReorderPrediction{}, models.ErrInvalidSKU
	}
	h, err := s.History(ctx, userID)
	if err != nil {
		return models.ReorderPrediction{}, err
	}

	defer observe("predict_reorder_date", time.Now())
	return s.cycles.PredictReorderDate(sku, h, season), nil
}

// AdjustForHolidays pulls a predicted date forward ahead of a holiday
func (s *PatternService) AdjustForHolidays(regularCycleDays int, nextDate time.Time, holidays map[string]string) models.HolidayAdjustment {
	defer observe("holiday_adjust", time.Now())
	return s.cycles.PredictWithHolidays(regularCycleDays, nextDate, holidays)
}

// StockoutReminders warns about critical items close to running out
func (s *PatternService) StockoutReminders(ctx context.Context, userID string, now time.Time, opts models.StockoutOptions) ([]models.Reminder, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.StockoutReminders")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer observe("stockout_reminders", time.Now())
	return s.cycles.GetStockoutPreventionReminders(h, now, opts), nil
}

// Household estimates household size from category variants
func (s *PatternService) Household(ctx context.Context, userID string) (models.HouseholdPattern, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.Household")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return models.HouseholdPattern{}, err
	}

	defer observe("household", time.Now())
	return s.cycles.DetectHouseholdPatterns(h), nil
}

// RecordFeedback stores a correction and returns the cycle learned from all corrections of that SKU
func (s *PatternService) RecordFeedback(ctx context.Context, userID string, fb models.ReorderFeedback) (models.FeedbackLearning, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.RecordFeedback")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.FeedbackLearning{}, models.ErrInvalidUserID
	}
	if strings.TrimSpace(fb.SKU) == "" {
		return models.FeedbackLearning{}, models.ErrInvalidSKU
	}
	if fb.SuggestedDays <= 0 || fb.ActualDays <= 0 {
		return models.FeedbackLearning{}, models.ErrInvalidFeedback
	}

	if err := s.store.AddReorderFeedback(ctx, userID, &fb); err != nil {
		util.RecordError(span, err)
		return models.FeedbackLearning{}, fmt.Errorf("failed to record feedback: %w", err)
	}
	util.FeedbackRecordedTotal.Inc()
	s.invalidate(ctx, userID)

	s.logger.Info("Reorder feedback recorded",
		zap.String("user_id", userID),
		zap.String("sku", fb.SKU),
		zap.Int("suggested_days", fb.SuggestedDays),
		zap.Int("actual_days", fb.ActualDays))

	if s.publisher != nil {
		event := &models.FeedbackAddedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeFeedbackAdded,
				Timestamp: time.Now(),
			},
			UserID:   userID,
			Feedback: fb,
		}
		if err := s.publisher.PublishFeedbackAdded(ctx, event); err != nil {
			s.logger.Error("Failed to publish feedback event", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return s.FeedbackLearning(ctx, userID, fb.SKU)
}

// SetSeasonalPatterns replaces the SKUs a user buys more of during season
func (s *PatternService) SetSeasonalPatterns(ctx context.Context, userID, season string, skus []string) error {
	ctx, span := util.StartSpan(ctx, "PatternService.SetSeasonalPatterns")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.ErrInvalidUserID
	}
	season = strings.ToLower(strings.TrimSpace(season))
	if season == "" {
		return models.ErrInvalidSeason
	}
	for _, sku := range skus {
		if strings.TrimSpace(sku) == "" {
			return models.ErrInvalidSKU
		}
	}

	if err := s.store.SetSeasonalPatterns(ctx, userID, season, skus); err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to set seasonal patterns: %w", err)
	}
	s.invalidate(ctx, userID)

	s.logger.Info("Seasonal patterns updated",
		zap.String("user_id", userID),
		zap.String("season", season),
		zap.Int("skus", len(skus)))
	return nil
}

// FeedbackLearning scales the current cycle of sku by the user's corrections
func (s *PatternService) FeedbackLearning(ctx context.Context, userID, sku string) (models.FeedbackLearning, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.FeedbackLearning")
	defer span.End()

	if strings.TrimSpace(sku) == "" {
		return models.FeedbackLearning{}, models.ErrInvalidSKU
	}
	h, err := s.History(ctx, userID)
	if err != nil {
		return models.FeedbackLearning{}, err
	}

	defer observe("feedback_learning", time.Now())
	base := 0
	if c, ok := s.cycles.CalculateReorderCycles(h)[sku]; ok {
		base = c.AverageDays
	}
	return s.cycles.LearnFromFeedback(sku, h, base), nil
}

// Insights runs both engines over one history load in parallel
func (s *PatternService) Insights(ctx context.Context, userID string, now time.Time) (*models.Insights, error) {
	ctx, span := util.StartSpan(ctx, "PatternService.Insights")
	defer span.End()

	h, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer observe("insights", time.Now())
	insights := &models.Insights{UserID: h.UserID, AsOf: now}
	cfg := s.usual.Config()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		insights.UsualBasket = s.usual.CreateUsualBasket(h, cfg.ConfidenceThreshold)
		return nil
	})
	g.Go(func() error {
		insights.UsualItems, insights.UsualSource = s.selector.UsualItems(gctx, h)
		return nil
	})
	g.Go(func() error {
		insights.Patterns = s.usual.LearnShoppingPatterns(h)
		return nil
	})
	g.Go(func() error {
		insights.Cycles = s.cycles.CalculateReorderCycles(h)
		return nil
	})
	g.Go(func() error {
		insights.Due = s.cycles.GetDueForReorder(h, now)
		return nil
	})
	g.Go(func() error {
		insights.Reminders = s.cycles.GenerateReminders(h, now, cfg.ReminderDaysAhead)
		return nil
	})
	g.Go(func() error {
		insights.Bundles = s.cycles.SuggestReorderBundles(h)
		return nil
	})
	g.Go(func() error {
		insights.Household = s.cycles.DetectHouseholdPatterns(h)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return insights, nil
}

// InvalidateHistory drops the cached history of a user
func (s *PatternService) InvalidateHistory(ctx context.Context, userID string) {
	s.invalidate(ctx, userID)
}

func (s *PatternService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateHistory(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate cached history", zap.String("user_id", userID), zap.Error(err))
	}
}
