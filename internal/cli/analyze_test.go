package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyJSON = `{
  "user_id": "user-7",
  "orders": [
    {"order_id": "o1", "timestamp": "2024-06-01T10:00:00Z", "items": [
      {"sku": "MILK-001", "name": "Milk", "quantity": 2, "price": 3.5},
      {"sku": "ICECREAM-001", "name": "Vanilla", "quantity": 1, "price": 6.0}]},
    {"order_id": "o2", "timestamp": "2024-06-08T10:00:00Z", "items": [
      {"sku": "MILK-001", "name": "Milk", "quantity": 2, "price": 3.5}]},
    {"order_id": "o3", "timestamp": "2024-06-15T10:00:00Z", "items": [
      {"sku": "MILK-001", "name": "Milk", "quantity": 2, "price": 3.5},
      {"sku": "ICECREAM-001", "name": "Vanilla", "quantity": 1, "price": 6.0}]},
    {"order_id": "o4", "timestamp": "not a date", "items": [
      {"sku": "MILK-001", "name": "Milk", "quantity": 2, "price": 3.5}]}
  ],
  "seasonal_patterns": {"summer": ["ICECREAM-001"]}
}`

func loadHistory(t *testing.T) *models.PurchaseHistory {
	t.Helper()
	var h models.PurchaseHistory
	require.NoError(t, json.Unmarshal([]byte(historyJSON), &h))
	return &h
}

func TestAnalyze(t *testing.T) {
	now := time.Date(2024, 6, 22, 9, 0, 0, 0, time.UTC)

	report, err := Analyze(context.Background(), loadHistory(t), AnalyzeOptions{
		Now:       now,
		Season:    "Summer",
		Threshold: patterns.UseDefault,
		DaysAhead: patterns.UseDefault,
		Config:    patterns.DefaultConfig(),
	})

	require.NoError(t, err)
	assert.Equal(t, "user-7", report.UserID)
	assert.Equal(t, "summer", report.Season)
	assert.Contains(t, report.Cycles, "MILK-001")
	assert.Equal(t, 7, report.Cycles["MILK-001"].AverageDays)
	require.Len(t, report.Predictions, len(report.Cycles))

	var seasonal bool
	for _, item := range report.Seasonal {
		if item.SKU == "ICECREAM-001" {
			seasonal = item.IsSeasonal || item.Confidence > 0
		}
	}
	assert.True(t, seasonal)
}

func TestAnalyze_DefaultsUserID(t *testing.T) {
	h := &models.PurchaseHistory{}

	report, err := Analyze(context.Background(), h, AnalyzeOptions{
		Now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Threshold: patterns.UseDefault,
		DaysAhead: patterns.UseDefault,
		Config:    patterns.DefaultConfig(),
	})

	require.NoError(t, err)
	assert.Equal(t, offlineUserID, report.UserID)
	assert.Empty(t, report.UsualBasket.Items)
	assert.Empty(t, report.Predictions)
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(historyJSON), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"analyze", "--file", path, "--date", "2024-06-22", "--days", "3"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		analyzeDays = patterns.UseDefault
	})

	require.NoError(t, rootCmd.Execute())

	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "user-7", report["user_id"])
	assert.Contains(t, report, "reorder_cycles")
	assert.NotContains(t, report, "season")
}

func TestAnalyzeCommand_InvalidDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(historyJSON), 0o600))

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"analyze", "--file", path, "--date", "yesterday"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		analyzeDate = ""
	})

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, models.ErrInvalidDate)
}

func TestAnalyze_MixedCaseSeasonKey(t *testing.T) {
	var h models.PurchaseHistory
	require.NoError(t, json.Unmarshal([]byte(`{
		"user_id": "user-8",
		"orders": [
			{"order_id": "o1", "timestamp": "2024-06-01", "items": [{"sku": "ICE-1", "name": "Ice", "quantity": 1, "price": 4}]},
			{"order_id": "o2", "timestamp": "2024-06-15", "items": [{"sku": "ICE-1", "name": "Ice", "quantity": 1, "price": 4}]},
			{"order_id": "o3", "timestamp": "2024-06-29", "items": [{"sku": "ICE-1", "name": "Ice", "quantity": 1, "price": 4}]}
		],
		"seasonal_patterns": {"Summer": ["ICE-1"]}
	}`), &h))

	report, err := Analyze(context.Background(), &h, AnalyzeOptions{
		Now:       time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Season:    "Summer",
		Threshold: patterns.UseDefault,
		DaysAhead: patterns.UseDefault,
		Config:    patterns.DefaultConfig(),
	})
	require.NoError(t, err)

	var flagged bool
	for _, item := range report.Seasonal {
		if item.SKU == "ICE-1" {
			flagged = item.IsSeasonal
		}
	}
	assert.True(t, flagged)

	require.Len(t, report.Predictions, 1)
	assert.Equal(t, 14, report.Predictions[0].BaseCycleDays)
	assert.Equal(t, 10, report.Predictions[0].CycleDays)
	assert.Contains(t, report.Predictions[0].Reason, "seasonal item")
}

func TestAnalyze_ExplicitZeroHorizon(t *testing.T) {
	now := time.Date(2024, 6, 21, 9, 0, 0, 0, time.UTC)
	opts := AnalyzeOptions{
		Now:       now,
		Threshold: patterns.UseDefault,
		DaysAhead: patterns.UseDefault,
		Config:    patterns.DefaultConfig(),
	}

	defaulted, err := Analyze(context.Background(), loadHistory(t), opts)
	require.NoError(t, err)
	assert.NotEmpty(t, defaulted.Reminders)

	opts.DaysAhead = 0
	none, err := Analyze(context.Background(), loadHistory(t), opts)
	require.NoError(t, err)
	assert.Empty(t, none.Reminders)
}
