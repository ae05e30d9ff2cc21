package source

import (
	"context"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"
)

// Source names reported with every selected result
const (
	NameStatistical = "statistical"
	NameGraph       = "graph"
)

// PatternSource answers the usual-items and reorder-suggestion questions for one history
type PatternSource interface {
	Name() string
	UsualItems(ctx context.Context, h *models.PurchaseHistory) ([]models.UsualItem, error)
	ReorderSuggestions(ctx context.Context, h *models.PurchaseHistory, now time.Time) ([]models.ReorderSuggestion, error)
}

// StatisticalSource answers from the in-memory engines and never fails
type StatisticalSource struct {
	engine *patterns.UsualBasketEngine
}

// NewStatisticalSource creates a source backed by the usual basket engine
func NewStatisticalSource(engine *patterns.UsualBasketEngine) *StatisticalSource {
	return &StatisticalSource{engine: engine}
}

func (s *StatisticalSource) Name() string {
	return NameStatistical
}

func (s *StatisticalSource) UsualItems(_ context.Context, h *models.PurchaseHistory) ([]models.UsualItem, error) {
	return s.engine.DetectUsualItems(h), nil
}

func (s *StatisticalSource) ReorderSuggestions(_ context.Context, h *models.PurchaseHistory, now time.Time) ([]models.ReorderSuggestion, error) {
	return s.engine.GetReorderSuggestions(h, now), nil
}

// GraphQuerier is the part of the graph client the graph source reads from
type GraphQuerier interface {
	UsualProducts(ctx context.Context, userID string, minFrequency float64) ([]models.UsualItem, error)
	ReorderSuggestions(ctx context.Context, userID string, now time.Time, ratio float64) ([]models.ReorderSuggestion, error)
}

// GraphBackedSource answers from the relationship graph maintained by the order worker
type GraphBackedSource struct {
	graph  GraphQuerier
	config patterns.Config
}

// NewGraphBackedSource creates a source reading from graph with the engine thresholds of cfg
func NewGraphBackedSource(graph GraphQuerier, cfg patterns.Config) *GraphBackedSource {
	return &GraphBackedSource{graph: graph, config: cfg}
}

func (s *GraphBackedSource) Name() string {
	return NameGraph
}

func (s *GraphBackedSource) UsualItems(ctx context.Context, h *models.PurchaseHistory) ([]models.UsualItem, error) {
	if s.graph == nil {
		return nil, models.ErrSourceUnavailable
	}
	if h == nil || h.UserID == "" {
		return nil, models.ErrInvalidUserID
	}
	return s.graph.UsualProducts(ctx, h.UserID, s.config.UsualFrequencyMin)
}

func (s *GraphBackedSource) ReorderSuggestions(ctx context.Context, h *models.PurchaseHistory, now time.Time) ([]models.ReorderSuggestion, error) {
	if s.graph == nil {
		return nil, models.ErrSourceUnavailable
	}
	if h == nil || h.UserID == "" {
		return nil, models.ErrInvalidUserID
	}
	return s.graph.ReorderSuggestions(ctx, h.UserID, now, s.config.ReorderSuggestRatio)
}
