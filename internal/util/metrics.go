package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EngineLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pattern_engine_latency_seconds",
		Help:    "Latency of pattern engine operations",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"operation"})

	HistoryLoadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_history_load_latency_seconds",
		Help:    "Latency of loading a purchase history",
		Buckets: prometheus.DefBuckets,
	})

	HistoryOrdersLoaded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_history_orders",
		Help:    "Number of orders in loaded purchase histories",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
	})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "history_cache_requests_total",
		Help: "Total number of history cache lookups",
	}, []string{"result"})

	PatternSourceSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pattern_source_selections_total",
		Help: "Total number of results served per pattern source",
	}, []string{"operation", "source"})

	PatternSourceFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pattern_source_fallbacks_total",
		Help: "Total number of fallbacks from the graph source to statistics",
	}, []string{"operation", "reason"})

	OrderEventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_events_consumed_total",
		Help: "Total number of order events consumed",
	}, []string{"status"})

	RemindersIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reorder_reminders_issued_total",
		Help: "Total number of reorder reminders published",
	}, []string{"urgency"})

	RemindersSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reorder_reminders_suppressed_total",
		Help: "Total number of reminders skipped because they were already sent",
	})

	ReminderScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reorder_reminder_scan_duration_seconds",
		Help:    "Duration of a full reminder scan",
		Buckets: prometheus.DefBuckets,
	})

	FeedbackRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reorder_feedback_recorded_total",
		Help: "Total number of reorder feedback records stored",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
