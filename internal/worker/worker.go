package worker

import (
	"context"
	"time"

	"purchase-patterns/internal/broker"
	"purchase-patterns/internal/service"
	"purchase-patterns/internal/util"

	"go.uber.org/zap"
)

// OrderWorker consumes OrderPlaced events into the history store
type OrderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewOrderWorker creates a new order worker
func NewOrderWorker(consumer *broker.Consumer, ingest *service.IngestService) *OrderWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(ingest.HandleOrderPlaced)

	return &OrderWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the worker
func (w *OrderWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderWorker) Stop() error {
	w.logger.Info("Stopping order worker")
	return w.consumer.Close()
}

// Scanner runs one reminder scan
type Scanner interface {
	Scan(ctx context.Context, now time.Time) (service.ScanResult, error)
}

// Locker guards the scan so only one replica runs it per interval. The lock expires on its own.
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
}

const (
	reminderLockKey     = "reminder-scan"
	defaultScanInterval = time.Hour
)

// ReminderWorker runs the reminder scan on a fixed interval
type ReminderWorker struct {
	scanner  Scanner
	locker   Locker
	interval time.Duration
	clock    func() time.Time
	logger   *zap.Logger
}

// NewReminderWorker creates a new reminder worker. locker may be nil for a single replica.
// A non-positive interval falls back to one hour.
func NewReminderWorker(scanner Scanner, locker Locker, interval time.Duration) *ReminderWorker {
	logger := util.GetLogger()
	if interval <= 0 {
		logger.Warn("Invalid reminder scan interval, using default",
			zap.Duration("interval", interval),
			zap.Duration("default", defaultScanInterval))
		interval = defaultScanInterval
	}

	return &ReminderWorker{
		scanner:  scanner,
		locker:   locker,
		interval: interval,
		clock:    time.Now,
		logger:   logger,
	}
}

// Start scans once immediately and then on every tick until ctx is cancelled
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reminder worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping reminder worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context) {
	if w.locker != nil {
		acquired, err := w.locker.AcquireLock(ctx, reminderLockKey, w.interval)
		if err != nil {
			w.logger.Error("Failed to acquire reminder lock", zap.Error(err))
			return
		}
		if !acquired {
			w.logger.Debug("Reminder scan already running elsewhere")
			return
		}
	}

	if _, err := w.scanner.Scan(ctx, w.clock()); err != nil && ctx.Err() == nil {
		w.logger.Error("Reminder scan failed", zap.Error(err))
	}
}
