package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"
	"purchase-patterns/internal/source"
)

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func at(days int) time.Time {
	return day0.AddDate(0, 0, days)
}

type fakeStore struct {
	mu        sync.Mutex
	histories map[string]*models.PurchaseHistory
	processed map[string]bool
	loads     int
	err       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		histories: make(map[string]*models.PurchaseHistory),
		processed: make(map[string]bool),
	}
}

func (f *fakeStore) GetPurchaseHistory(_ context.Context, userID string) (*models.PurchaseHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	h, ok := f.histories[userID]
	if !ok {
		return &models.PurchaseHistory{UserID: userID, Orders: []models.Order{}}, nil
	}
	return h, nil
}

func (f *fakeStore) AddReorderFeedback(_ context.Context, userID string, fb *models.ReorderFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	h := f.history(userID)
	fb.CreatedAt = time.Now()
	h.ReorderFeedback = append(h.ReorderFeedback, *fb)
	return nil
}

func (f *fakeStore) SaveOrder(_ context.Context, userID string, order models.Order) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	h := f.history(userID)
	for _, o := range h.Orders {
		if o.OrderID == order.OrderID {
			return false, nil
		}
	}
	h.Orders = append(h.Orders, order)
	return true, nil
}

func (f *fakeStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processed[eventID], nil
}

func (f *fakeStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[eventID] = true
	return nil
}

func (f *fakeStore) ListActiveUsers(_ context.Context, since time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []string
	for id, h := range f.histories {
		for _, o := range h.Orders {
			if !o.Timestamp.Before(since) {
				users = append(users, id)
				break
			}
		}
	}
	return users, nil
}

func (f *fakeStore) SetSeasonalPatterns(_ context.Context, userID, season string, skus []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	h := f.history(userID)
	if h.SeasonalPatterns == nil {
		h.SeasonalPatterns = make(map[string][]string)
	}
	h.SeasonalPatterns[season] = append([]string(nil), skus...)
	return nil
}

func (f *fakeStore) history(userID string) *models.PurchaseHistory {
	h, ok := f.histories[userID]
	if !ok {
		h = &models.PurchaseHistory{UserID: userID}
		f.histories[userID] = h
	}
	return h
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*models.PurchaseHistory
	invalidated []string
	err         error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*models.PurchaseHistory)}
}

func (f *fakeCache) GetHistory(_ context.Context, userID string) (*models.PurchaseHistory, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	h, ok := f.entries[userID]
	return h, ok, nil
}

func (f *fakeCache) SetHistory(_ context.Context, h *models.PurchaseHistory, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[h.UserID] = h
	return nil
}

func (f *fakeCache) InvalidateHistory(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	reminders []*models.ReorderReminderEvent
	feedback  []*models.FeedbackAddedEvent
	err       error
}

func (f *fakePublisher) PublishReorderReminder(_ context.Context, event *models.ReorderReminderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.reminders = append(f.reminders, event)
	return nil
}

func (f *fakePublisher) PublishFeedbackAdded(_ context.Context, event *models.FeedbackAddedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.feedback = append(f.feedback, event)
	return nil
}

// fakeDeduper mirrors the escalation rule of the redis script
type fakeDeduper struct {
	sent map[string]int
}

func (f *fakeDeduper) MarkReminderSent(_ context.Context, userID string, r models.Reminder, rank int, _ time.Duration) (bool, error) {
	if f.sent == nil {
		f.sent = make(map[string]int)
	}
	key := userID + ":" + r.SKU + ":" + r.Type
	if prev, ok := f.sent[key]; ok && prev <= rank {
		return false, nil
	}
	f.sent[key] = rank
	return true, nil
}

type fakeGraph struct {
	recorded []string
	err      error
}

func (f *fakeGraph) RecordOrder(_ context.Context, userID string, order models.Order) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, userID+"/"+order.OrderID)
	return nil
}

var errBoom = errors.New("boom")

func item(sku string, qty int, price float64) models.LineItem {
	return models.LineItem{SKU: sku, Name: sku + " name", Quantity: qty, Price: price}
}

func order(id string, days int, items ...models.LineItem) models.Order {
	return models.Order{OrderID: id, Timestamp: at(days), Items: items}
}

// weeklyShopper buys milk and bread every week and rice once a month
func weeklyShopper(userID string) *models.PurchaseHistory {
	h := &models.PurchaseHistory{UserID: userID}
	for i := 0; i < 4; i++ {
		items := []models.LineItem{item("MILK-001", 2, 3.5), item("BREAD-001", 1, 2.25)}
		if i%4 == 0 {
			items = append(items, item("RICE-001", 1, 12))
		}
		h.Orders = append(h.Orders, order(string(rune('a'+i)), 7*i, items...))
	}
	return h
}

func newPatternService(st *fakeStore, cache HistoryCache, pub FeedbackPublisher) *PatternService {
	cfg := patterns.DefaultConfig()
	usual := patterns.NewUsualBasketEngine(cfg)
	cycles := patterns.NewReorderCycleEngine(cfg)
	selector := source.NewSelector(source.NewStatisticalSource(usual), nil)
	return NewPatternService(st, cache, pub, usual, cycles, selector, time.Minute)
}

type fakeSource struct {
	name        string
	items       []models.UsualItem
	suggestions []models.ReorderSuggestion
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) UsualItems(context.Context, *models.PurchaseHistory) ([]models.UsualItem, error) {
	return f.items, nil
}

func (f *fakeSource) ReorderSuggestions(context.Context, *models.PurchaseHistory, time.Time) ([]models.ReorderSuggestion, error) {
	return f.suggestions, nil
}
