package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type fakeGraph struct {
	items       []models.UsualItem
	suggestions []models.ReorderSuggestion
	err         error
	userIDs     []string
}

func (f *fakeGraph) UsualProducts(_ context.Context, userID string, _ float64) ([]models.UsualItem, error) {
	f.userIDs = append(f.userIDs, userID)
	return f.items, f.err
}

func (f *fakeGraph) ReorderSuggestions(_ context.Context, userID string, _ time.Time, _ float64) ([]models.ReorderSuggestion, error) {
	f.userIDs = append(f.userIDs, userID)
	return f.suggestions, f.err
}

func weeklyMilk() *models.PurchaseHistory {
	h := &models.PurchaseHistory{UserID: "user-1"}
	for i := 0; i < 4; i++ {
		h.Orders = append(h.Orders, models.Order{
			OrderID:   "ord",
			Timestamp: day0.AddDate(0, 0, 7*i),
			Items:     []models.LineItem{{SKU: "MILK-001", Name: "Milk", Quantity: 2, Price: 3}},
		})
	}
	return h
}

func newSelector(graph GraphQuerier) *Selector {
	cfg := patterns.DefaultConfig()
	stat := NewStatisticalSource(patterns.NewUsualBasketEngine(cfg))
	if graph == nil {
		return NewSelector(stat, nil)
	}
	return NewSelector(stat, NewGraphBackedSource(graph, cfg))
}

func TestSelector_PrefersGraph(t *testing.T) {
	graph := &fakeGraph{
		items:       []models.UsualItem{{SKU: "EGGS-001", Confidence: 0.9}},
		suggestions: []models.ReorderSuggestion{{SKU: "EGGS-001", Confidence: 0.8}},
	}
	s := newSelector(graph)

	items, name := s.UsualItems(context.Background(), weeklyMilk())
	assert.Equal(t, NameGraph, name)
	require.Len(t, items, 1)
	assert.Equal(t, "EGGS-001", items[0].SKU)

	suggestions, name := s.ReorderSuggestions(context.Background(), weeklyMilk(), day0.AddDate(0, 0, 27))
	assert.Equal(t, NameGraph, name)
	require.Len(t, suggestions, 1)
	assert.Equal(t, NameGraph, suggestions[0].Source)
	assert.Equal(t, []string{"user-1", "user-1"}, graph.userIDs)
}

func TestSelector_FallsBackOnError(t *testing.T) {
	s := newSelector(&fakeGraph{err: errors.New("connection refused")})

	items, name := s.UsualItems(context.Background(), weeklyMilk())

	assert.Equal(t, NameStatistical, name)
	require.Len(t, items, 1)
	assert.Equal(t, "MILK-001", items[0].SKU)
}

func TestSelector_FallsBackOnEmpty(t *testing.T) {
	s := newSelector(&fakeGraph{})

	suggestions, name := s.ReorderSuggestions(context.Background(), weeklyMilk(), day0.AddDate(0, 0, 27))

	assert.Equal(t, NameStatistical, name)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "MILK-001", suggestions[0].SKU)
	assert.Equal(t, NameStatistical, suggestions[0].Source)
}

func TestSelector_WithoutGraph(t *testing.T) {
	s := newSelector(nil)

	items, name := s.UsualItems(context.Background(), nil)

	assert.Equal(t, NameStatistical, name)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGraphBackedSource_RequiresUser(t *testing.T) {
	src := NewGraphBackedSource(&fakeGraph{}, patterns.DefaultConfig())

	_, err := src.UsualItems(context.Background(), &models.PurchaseHistory{})

	assert.ErrorIs(t, err, models.ErrInvalidUserID)
}

func TestGraphBackedSource_Unavailable(t *testing.T) {
	src := NewGraphBackedSource(nil, patterns.DefaultConfig())

	_, err := src.ReorderSuggestions(context.Background(), weeklyMilk(), day0)

	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}
