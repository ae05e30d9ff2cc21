package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"purchase-patterns/internal/service"

	"github.com/stretchr/testify/assert"
)

type countingScanner struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (s *countingScanner) Scan(_ context.Context, now time.Time) (service.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, now)
	return service.ScanResult{}, s.err
}

func (s *countingScanner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeLocker struct {
	held bool
	err  error
}

func (l *fakeLocker) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) expire() {
	l.held = false
}

func TestReminderWorker_ScansUntilCancelled(t *testing.T) {
	scanner := &countingScanner{}
	w := NewReminderWorker(scanner, nil, 10*time.Millisecond)
	fixed := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	w.clock = func() time.Time { return fixed }

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, scanner.count(), 2)
	assert.Equal(t, fixed, scanner.calls[0])
}

func TestReminderWorker_RespectsLock(t *testing.T) {
	scanner := &countingScanner{}
	locker := &fakeLocker{held: true}
	w := NewReminderWorker(scanner, locker, time.Hour)

	w.runOnce(context.Background())
	assert.Zero(t, scanner.count())

	locker.expire()
	w.runOnce(context.Background())
	assert.Equal(t, 1, scanner.count())
}

func TestReminderWorker_LockErrorSkipsScan(t *testing.T) {
	scanner := &countingScanner{}
	w := NewReminderWorker(scanner, &fakeLocker{err: errors.New("redis down")}, time.Hour)

	w.runOnce(context.Background())

	assert.Zero(t, scanner.count())
}

func TestNewReminderWorker_NonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute} {
		w := NewReminderWorker(&countingScanner{}, nil, interval)
		assert.Equal(t, defaultScanInterval, w.interval)
	}

	scanner := &countingScanner{}
	w := NewReminderWorker(scanner, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		_ = w.Start(ctx)
	})
	assert.Equal(t, 1, scanner.count())
}
