package source

import (
	"context"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/util"

	"go.uber.org/zap"
)

const (
	fallbackError = "error"
	fallbackEmpty = "empty"
)

// Selector prefers the graph source and falls back to statistics when the graph is
// absent, fails, or has nothing to say
type Selector struct {
	graph       PatternSource
	statistical PatternSource
	logger      *zap.Logger
}

// NewSelector creates a selector. graph may be nil.
func NewSelector(statistical, graph PatternSource) *Selector {
	return &Selector{
		graph:       graph,
		statistical: statistical,
		logger:      util.GetLogger(),
	}
}

// UsualItems returns the usual items and the name of the source that produced them
func (s *Selector) UsualItems(ctx context.Context, h *models.PurchaseHistory) ([]models.UsualItem, string) {
	if s.graph != nil {
		items, err := s.graph.UsualItems(ctx, h)
		if s.useGraph("usual_items", len(items), err) {
			util.PatternSourceSelections.WithLabelValues("usual_items", s.graph.Name()).Inc()
			return items, s.graph.Name()
		}
	}

	items, _ := s.statistical.UsualItems(ctx, h)
	if items == nil {
		items = []models.UsualItem{}
	}
	util.PatternSourceSelections.WithLabelValues("usual_items", s.statistical.Name()).Inc()
	return items, s.statistical.Name()
}

// ReorderSuggestions returns reorder suggestions tagged with the source that produced them
func (s *Selector) ReorderSuggestions(ctx context.Context, h *models.PurchaseHistory, now time.Time) ([]models.ReorderSuggestion, string) {
	if s.graph != nil {
		suggestions, err := s.graph.ReorderSuggestions(ctx, h, now)
		if s.useGraph("reorder_suggestions", len(suggestions), err) {
			util.PatternSourceSelections.WithLabelValues("reorder_suggestions", s.graph.Name()).Inc()
			return tagged(suggestions, s.graph.Name()), s.graph.Name()
		}
	}

	suggestions, _ := s.statistical.ReorderSuggestions(ctx, h, now)
	if suggestions == nil {
		suggestions = []models.ReorderSuggestion{}
	}
	util.PatternSourceSelections.WithLabelValues("reorder_suggestions", s.statistical.Name()).Inc()
	return tagged(suggestions, s.statistical.Name()), s.statistical.Name()
}

func (s *Selector) useGraph(operation string, results int, err error) bool {
	if err != nil {
		util.PatternSourceFallbacks.WithLabelValues(operation, fallbackError).Inc()
		s.logger.Warn("Graph source failed, falling back to statistics",
			zap.String("operation", operation),
			zap.Error(err))
		return false
	}
	if results == 0 {
		util.PatternSourceFallbacks.WithLabelValues(operation, fallbackEmpty).Inc()
		return false
	}
	return true
}

func tagged(suggestions []models.ReorderSuggestion, source string) []models.ReorderSuggestion {
	for i := range suggestions {
		suggestions[i].Source = source
	}
	return suggestions
}
