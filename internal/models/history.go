package models

import (
	"encoding/json"
	"strings"
	"time"
)

// timestampLayouts are the formats accepted for order timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LineItem represents one product within an order
type LineItem struct {
	SKU      string  `db:"sku" json:"sku"`
	Name     string  `db:"name" json:"name"`
	Category string  `db:"category" json:"category,omitempty"`
	Quantity int     `db:"quantity" json:"quantity"`
	Price    float64 `db:"unit_price" json:"price"`
}

// Qty returns the quantity, defaulting to 1 when absent
func (li LineItem) Qty() int {
	if li.Quantity <= 0 {
		return 1
	}
	return li.Quantity
}

// UnitPrice returns the price, defaulting to 0 when absent or negative
func (li LineItem) UnitPrice() float64 {
	if li.Price < 0 {
		return 0
	}
	return li.Price
}

// CategoryKey returns the explicit category or the SKU prefix before the first dash
func (li LineItem) CategoryKey() string {
	if li.Category != "" {
		return strings.ToUpper(li.Category)
	}
	if idx := strings.Index(li.SKU, "-"); idx > 0 {
		return strings.ToUpper(li.SKU[:idx])
	}
	return strings.ToUpper(li.SKU)
}

// Order represents one historical purchase event
type Order struct {
	OrderID   string     `json:"order_id"`
	Timestamp time.Time  `json:"timestamp"`
	Items     []LineItem `json:"items"`
}

// HasTimestamp reports whether the order carries a usable timestamp
func (o Order) HasTimestamp() bool {
	return !o.Timestamp.IsZero()
}

// UnmarshalJSON decodes an order, leaving Timestamp zero when it cannot be parsed
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw struct {
		OrderID   json.RawMessage `json:"order_id"`
		Timestamp json.RawMessage `json:"timestamp"`
		Items     []LineItem      `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.OrderID = decodeID(raw.OrderID)
	o.Items = raw.Items
	o.Timestamp = time.Time{}
	var ts string
	if err := json.Unmarshal(raw.Timestamp, &ts); err == nil {
		o.Timestamp = ParseTimestamp(ts)
	}
	return nil
}

// ParseTimestamp parses a timestamp in any accepted layout, returning the zero time on failure
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// decodeID accepts string or numeric identifiers
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// ReorderFeedback is a user correction of a suggested reorder interval
type ReorderFeedback struct {
	SKU           string    `db:"sku" json:"sku"`
	SuggestedDays int       `db:"suggested_days" json:"suggested_days"`
	ActualDays    int       `db:"actual_days" json:"actual_days"`
	CreatedAt     time.Time `db:"created_at" json:"created_at,omitempty"`
}

// PurchaseHistory is the read-only input to both pattern engines
type PurchaseHistory struct {
	UserID           string              `json:"user_id"`
	Orders           []Order             `json:"orders"`
	SeasonalPatterns map[string][]string `json:"seasonal_patterns,omitempty"`
	ReorderFeedback  []ReorderFeedback   `json:"reorder_feedback,omitempty"`
}

// UnmarshalJSON decodes a history, folding seasonal_patterns keys to lower case
func (h *PurchaseHistory) UnmarshalJSON(data []byte) error {
	type plain PurchaseHistory
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*h = PurchaseHistory(raw)

	if len(raw.SeasonalPatterns) > 0 {
		h.SeasonalPatterns = make(map[string][]string, len(raw.SeasonalPatterns))
		for season, skus := range raw.SeasonalPatterns {
			key := strings.ToLower(strings.TrimSpace(season))
			h.SeasonalPatterns[key] = append(h.SeasonalPatterns[key], skus...)
		}
	}
	return nil
}

// SeasonalSKUs returns the SKUs listed under season, matching the season case-insensitively
func (h *PurchaseHistory) SeasonalSKUs(season string) []string {
	season = strings.TrimSpace(season)
	if h == nil || season == "" {
		return nil
	}
	if skus, ok := h.SeasonalPatterns[strings.ToLower(season)]; ok {
		return skus
	}
	var skus []string
	for key, listed := range h.SeasonalPatterns {
		if strings.EqualFold(key, season) {
			skus = append(skus, listed...)
		}
	}
	return skus
}

// IsSeasonal reports whether sku is listed under season
func (h *PurchaseHistory) IsSeasonal(season, sku string) bool {
	for _, s := range h.SeasonalSKUs(season) {
		if s == sku {
			return true
		}
	}
	return false
}

// OrderRecord is an order row in the history store
type OrderRecord struct {
	ID        int64      `db:"id" json:"id"`
	OrderID   string     `db:"order_id" json:"order_id"`
	UserID    string     `db:"user_id" json:"user_id"`
	PlacedAt  *time.Time `db:"placed_at" json:"placed_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// OrderItemRecord is an order line row in the history store
type OrderItemRecord struct {
	ID       int64   `db:"id"`
	OrderID  string  `db:"order_id"`
	SKU      string  `db:"sku"`
	Name     string  `db:"name"`
	Category string  `db:"category"`
	Quantity int     `db:"quantity"`
	Price    float64 `db:"unit_price"`
}
