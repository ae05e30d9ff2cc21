package service

import (
	"context"
	"fmt"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/util"

	"go.uber.org/zap"
)

// IngestService records placed orders into the history store and the relationship graph
type IngestService struct {
	store    OrderStore
	graph    OrderGraph
	patterns *PatternService
	logger   *zap.Logger
}

// NewIngestService creates a new ingest service. graph may be nil.
func NewIngestService(store OrderStore, graph OrderGraph, patterns *PatternService) *IngestService {
	return &IngestService{
		store:    store,
		graph:    graph,
		patterns: patterns,
		logger:   util.GetLogger(),
	}
}

// HandleOrderPlaced stores the order of an OrderPlaced event once, mirrors it into the graph
// and drops the user's cached history
func (s *IngestService) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "IngestService.HandleOrderPlaced")
	defer span.End()

	if event.UserID == "" || event.Order.OrderID == "" {
		util.OrderEventsConsumed.WithLabelValues("invalid").Inc()
		s.logger.Warn("Dropping order event without user or order id", zap.String("event_id", event.EventID))
		return nil
	}
	span.SetAttributes(util.UserAttr(event.UserID))

	if event.EventID != "" {
		processed, err := s.store.IsEventProcessed(ctx, event.EventID)
		if err != nil {
			util.RecordError(span, err)
			return fmt.Errorf("failed to check event processed: %w", err)
		}
		if processed {
			util.OrderEventsConsumed.WithLabelValues("duplicate").Inc()
			s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
			return nil
		}
	}

	if !event.Order.HasTimestamp() {
		s.logger.Debug("Order without usable timestamp, storing untimed",
			zap.String("user_id", event.UserID),
			zap.String("order_id", event.Order.OrderID))
	}

	created, err := s.store.SaveOrder(ctx, event.UserID, event.Order)
	if err != nil {
		util.OrderEventsConsumed.WithLabelValues("failed").Inc()
		util.RecordError(span, err)
		return fmt.Errorf("failed to save order: %w", err)
	}

	if created && s.graph != nil {
		if err := s.graph.RecordOrder(ctx, event.UserID, event.Order); err != nil {
			s.logger.Error("Failed to record order in graph",
				zap.String("user_id", event.UserID),
				zap.String("order_id", event.Order.OrderID),
				zap.Error(err))
		}
	}

	s.patterns.InvalidateHistory(ctx, event.UserID)

	if event.EventID != "" {
		if err := s.store.MarkEventProcessed(ctx, event.EventID, models.EventTypeOrderPlaced); err != nil {
			s.logger.Error("Failed to mark event processed", zap.String("event_id", event.EventID), zap.Error(err))
		}
	}

	util.OrderEventsConsumed.WithLabelValues("processed").Inc()
	s.logger.Info("Order recorded",
		zap.String("user_id", event.UserID),
		zap.String("order_id", event.Order.OrderID),
		zap.Int("items", len(event.Order.Items)),
		zap.Bool("new", created))
	return nil
}
