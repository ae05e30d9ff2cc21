package service

import (
	"context"
	"testing"
	"time"

	"purchase-patterns/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReminderService(st *fakeStore, pub *fakePublisher, dedup ReminderDeduper) *ReminderService {
	return NewReminderService(newPatternService(st, nil, nil), st, dedup, pub, ReminderConfig{
		ActiveWindow: 30 * 24 * time.Hour,
		DaysAhead:    7,
		DedupTTL:     24 * time.Hour,
	})
}

func TestScan_IssuesAndSuppressesRepeats(t *testing.T) {
	st := newFakeStore()
	st.histories["user-1"] = weeklyShopper("user-1")
	pub := &fakePublisher{}
	svc := newReminderService(st, pub, &fakeDeduper{})

	first, err := svc.Scan(context.Background(), at(27))
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Users: 1, Issued: 2}, first)
	require.Len(t, pub.reminders, 2)
	assert.Equal(t, "user-1", pub.reminders[0].UserID)
	assert.Equal(t, models.EventTypeReorderReminder, pub.reminders[0].EventType)
	assert.Equal(t, models.ReminderCritical, pub.reminders[0].Reminder.UrgencyLevel)

	second, err := svc.Scan(context.Background(), at(27))
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Users: 1, Suppressed: 2}, second)
	assert.Len(t, pub.reminders, 2)
}

func TestScan_SendsEscalations(t *testing.T) {
	st := newFakeStore()
	st.histories["user-1"] = weeklyShopper("user-1")
	pub := &fakePublisher{}
	svc := newReminderService(st, pub, &fakeDeduper{})

	// day 23: four days out, medium
	_, err := svc.Scan(context.Background(), at(23))
	require.NoError(t, err)
	require.Len(t, pub.reminders, 2)
	assert.Equal(t, models.ReminderMedium, pub.reminders[0].Reminder.UrgencyLevel)

	// day 25: two days out, high
	result, err := svc.Scan(context.Background(), at(25))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Issued)
	assert.Equal(t, models.ReminderHigh, pub.reminders[2].Reminder.UrgencyLevel)
}

func TestScan_SkipsInactiveUsers(t *testing.T) {
	st := newFakeStore()
	st.histories["user-1"] = weeklyShopper("user-1")
	pub := &fakePublisher{}
	svc := newReminderService(st, pub, &fakeDeduper{})

	result, err := svc.Scan(context.Background(), at(90))

	require.NoError(t, err)
	assert.Zero(t, result.Users)
	assert.Empty(t, pub.reminders)
}

func TestScan_PublishFailureCountsUser(t *testing.T) {
	st := newFakeStore()
	st.histories["user-1"] = weeklyShopper("user-1")
	svc := newReminderService(st, &fakePublisher{err: errBoom}, &fakeDeduper{})

	result, err := svc.Scan(context.Background(), at(27))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Issued)
}
