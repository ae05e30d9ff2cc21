package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"purchase-patterns/internal/models"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/mark_reminder.lua
var markReminderScript string

type Client struct {
	rdb          *redis.Client
	markReminder *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		markReminder: redis.NewScript(markReminderScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func historyKey(userID string) string {
	return fmt.Sprintf("history:%s", userID)
}

func reminderKey(userID, sku, reminderType string) string {
	return fmt.Sprintf("reminder:%s:%s:%s", userID, sku, reminderType)
}

// GetHistory returns the cached purchase history of a user. The bool is false on a miss.
func (c *Client) GetHistory(ctx context.Context, userID string) (*models.PurchaseHistory, bool, error) {
	data, err := c.rdb.Get(ctx, historyKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached history: %w", err)
	}

	var h models.PurchaseHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached history: %w", err)
	}
	return &h, true, nil
}

// SetHistory caches a purchase history for ttl
func (c *Client) SetHistory(ctx context.Context, h *models.PurchaseHistory, ttl time.Duration) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return c.rdb.Set(ctx, historyKey(h.UserID), data, ttl).Err()
}

// InvalidateHistory drops the cached history of a user
func (c *Client) InvalidateHistory(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, historyKey(userID)).Err()
}

// MarkReminderSent atomically records a reminder for ttl. It returns false when a reminder of
// the same or higher severity was already sent for that SKU within the window.
func (c *Client) MarkReminderSent(ctx context.Context, userID string, r models.Reminder, rank int, ttl time.Duration) (bool, error) {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	result, err := c.markReminder.Run(ctx, c.rdb, []string{reminderKey(userID, r.SKU, r.Type)}, rank, seconds).Result()
	if err != nil {
		return false, fmt.Errorf("mark reminder script failed: %w", err)
	}

	sent, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}
	return sent == 1, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}
