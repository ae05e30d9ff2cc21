package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("NEO4J_URI", "")
	t.Setenv("CONFIDENCE_THRESHOLD", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.8, cfg.Patterns.ConfidenceThreshold)
	assert.Equal(t, 7, cfg.Patterns.ReminderDaysAhead)
	assert.Equal(t, 90, cfg.Patterns.OutlierDays)
	assert.Empty(t, cfg.Neo4j.URI)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.6")
	t.Setenv("REMINDER_SCAN_INTERVAL", "15m")
	t.Setenv("REMINDER_SCAN_ENABLED", "false")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 0.6, cfg.Patterns.ConfidenceThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Reminder.ScanInterval)
	assert.False(t, cfg.Reminder.Enabled)
	assert.Equal(t, 0, cfg.Redis.DB)
}
