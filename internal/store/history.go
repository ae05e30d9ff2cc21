package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"purchase-patterns/internal/models"

	"github.com/jmoiron/sqlx"
)

// SaveOrder stores an order and its lines in one transaction. It reports false when the
// order id was already stored.
func (s *Store) SaveOrder(ctx context.Context, userID string, order models.Order) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var placedAt *time.Time
	if order.HasTimestamp() {
		ts := order.Timestamp.UTC()
		placedAt = &ts
	}

	var id int64
	err = tx.GetContext(ctx, &id, `
		INSERT INTO orders (order_id, user_id, placed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING id`,
		order.OrderID, userID, placedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, sku, name, category, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			order.OrderID, item.SKU, item.Name, item.Category, item.Qty(), item.UnitPrice())
		if err != nil {
			return false, fmt.Errorf("failed to insert order item %s: %w", item.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// GetPurchaseHistory loads every order, seasonal listing and feedback record of a user.
// A user without orders gets an empty history.
func (s *Store) GetPurchaseHistory(ctx context.Context, userID string) (*models.PurchaseHistory, error) {
	var orders []models.OrderRecord
	err := s.db.SelectContext(ctx, &orders, `
		SELECT id, order_id, user_id, placed_at, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY placed_at ASC NULLS FIRST, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	var items []models.OrderItemRecord
	if len(orders) > 0 {
		ids := make([]string, len(orders))
		for i, o := range orders {
			ids[i] = o.OrderID
		}
		query, args, err := sqlx.In(`
			SELECT id, order_id, sku, name, category, quantity, unit_price
			FROM order_items
			WHERE order_id IN (?)
			ORDER BY id`, ids)
		if err != nil {
			return nil, err
		}
		if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to load order items: %w", err)
		}
	}

	seasonal, err := s.getSeasonalPatterns(ctx, userID)
	if err != nil {
		return nil, err
	}
	feedback, err := s.GetReorderFeedback(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	return &models.PurchaseHistory{
		UserID:           userID,
		Orders:           assembleOrders(orders, items),
		SeasonalPatterns: seasonal,
		ReorderFeedback:  feedback,
	}, nil
}

// assembleOrders attaches item rows to their orders, keeping the order of both
func assembleOrders(orders []models.OrderRecord, items []models.OrderItemRecord) []models.Order {
	byOrder := make(map[string][]models.LineItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], models.LineItem{
			SKU:      it.SKU,
			Name:     it.Name,
			Category: it.Category,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		order := models.Order{OrderID: o.OrderID, Items: byOrder[o.OrderID]}
		if o.PlacedAt != nil {
			order.Timestamp = o.PlacedAt.UTC()
		}
		if order.Items == nil {
			order.Items = []models.LineItem{}
		}
		result = append(result, order)
	}
	return result
}

// ListActiveUsers returns the users with at least one order placed since the given time
func (s *Store) ListActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	var users []string
	err := s.db.SelectContext(ctx, &users, `
		SELECT DISTINCT user_id
		FROM orders
		WHERE placed_at >= $1
		ORDER BY user_id`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}
