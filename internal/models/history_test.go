package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantID    string
		wantTime  time.Time
		wantItems int
	}{
		{
			name:      "rfc3339",
			input:     `{"order_id":"o1","timestamp":"2024-03-01T08:30:00Z","items":[{"sku":"MILK-001","quantity":2,"price":3.5}]}`,
			wantID:    "o1",
			wantTime:  time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
			wantItems: 1,
		},
		{
			name:     "naive datetime",
			input:    `{"order_id":"o2","timestamp":"2024-03-01T08:30:00","items":[]}`,
			wantID:   "o2",
			wantTime: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		},
		{
			name:     "date only with numeric id",
			input:    `{"order_id":42,"timestamp":"2024-03-01"}`,
			wantID:   "42",
			wantTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "unparseable timestamp",
			input:  `{"order_id":"o3","timestamp":"last tuesday"}`,
			wantID: "o3",
		},
		{
			name:   "numeric timestamp",
			input:  `{"order_id":"o4","timestamp":1709281800}`,
			wantID: "o4",
		},
		{
			name:   "missing timestamp",
			input:  `{"order_id":"o5"}`,
			wantID: "o5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Order
			require.NoError(t, json.Unmarshal([]byte(tt.input), &o))

			assert.Equal(t, tt.wantID, o.OrderID)
			assert.True(t, tt.wantTime.Equal(o.Timestamp), "got %v", o.Timestamp)
			assert.Equal(t, !tt.wantTime.IsZero(), o.HasTimestamp())
			assert.Len(t, o.Items, tt.wantItems)
		})
	}
}

func TestOrder_UnmarshalJSON_Malformed(t *testing.T) {
	var o Order
	assert.Error(t, json.Unmarshal([]byte(`{"order_id":`), &o))
}

func TestLineItemDefaults(t *testing.T) {
	assert.Equal(t, 1, LineItem{}.Qty())
	assert.Equal(t, 3, LineItem{Quantity: 3}.Qty())
	assert.Equal(t, 0.0, LineItem{Price: -2}.UnitPrice())

	assert.Equal(t, "MILK", LineItem{SKU: "milk-002"}.CategoryKey())
	assert.Equal(t, "DAIRY", LineItem{SKU: "MILK-002", Category: "dairy"}.CategoryKey())
	assert.Equal(t, "EGGS", LineItem{SKU: "eggs"}.CategoryKey())
}

func TestPurchaseHistory_IsSeasonal(t *testing.T) {
	h := &PurchaseHistory{SeasonalPatterns: map[string][]string{"summer": {"ICE-001"}}}

	assert.True(t, h.IsSeasonal("summer", "ICE-001"))
	assert.False(t, h.IsSeasonal("winter", "ICE-001"))
	assert.False(t, h.IsSeasonal("", "ICE-001"))

	var empty *PurchaseHistory
	assert.False(t, empty.IsSeasonal("summer", "ICE-001"))
}

func TestPurchaseHistory_UnmarshalJSON_FoldsSeasonKeys(t *testing.T) {
	var h PurchaseHistory
	require.NoError(t, json.Unmarshal([]byte(`{
		"user_id": "u1",
		"orders": [{"order_id": "o1", "timestamp": "2024-06-01"}],
		"seasonal_patterns": {"Summer": ["ICE-1"], " WINTER ": ["SOUP-1"]}
	}`), &h))

	assert.Equal(t, "u1", h.UserID)
	require.Len(t, h.Orders, 1)
	assert.True(t, h.Orders[0].HasTimestamp())
	assert.Equal(t, []string{"ICE-1"}, h.SeasonalPatterns["summer"])
	assert.True(t, h.IsSeasonal("Summer", "ICE-1"))
	assert.True(t, h.IsSeasonal("winter", "SOUP-1"))
}

func TestPurchaseHistory_SeasonalSKUs_MixedCaseKeys(t *testing.T) {
	h := &PurchaseHistory{SeasonalPatterns: map[string][]string{"Summer": {"ICE-1"}}}

	assert.Equal(t, []string{"ICE-1"}, h.SeasonalSKUs("summer"))
	assert.True(t, h.IsSeasonal("SUMMER", "ICE-1"))
	assert.Empty(t, h.SeasonalSKUs("winter"))
}
