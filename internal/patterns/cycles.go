package patterns

import (
	"sort"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/stats"
	"purchase-patterns/internal/util"

	"go.uber.org/zap"
)

// ReorderCycleEngine learns per-SKU purchase cadence and surfaces reorder intelligence
type ReorderCycleEngine struct {
	config Config
	logger *zap.Logger
}

// NewReorderCycleEngine creates a new reorder cycle engine
func NewReorderCycleEngine(cfg Config) *ReorderCycleEngine {
	return &ReorderCycleEngine{
		config: cfg,
		logger: util.GetLogger(),
	}
}

// Config returns the engine settings
func (e *ReorderCycleEngine) Config() Config {
	return e.config
}

// CalculateReorderCycles computes the average interval between purchases for every SKU
// ordered at least twice. Gaps beyond the outlier limit are treated as pattern breaks.
func (e *ReorderCycleEngine) CalculateReorderCycles(h *models.PurchaseHistory) map[string]models.ReorderCycle {
	cycles := make(map[string]models.ReorderCycle)
	if len(ordersOf(h)) == 0 {
		return cycles
	}

	agg := aggregate(h)
	if agg.skipped > 0 {
		e.logger.Debug("Skipped orders with malformed timestamps",
			zap.String("user_id", userOf(h)),
			zap.Int("skipped", agg.skipped))
	}

	for _, sku := range agg.skus {
		st := agg.bySKU[sku]
		if cycle, ok := e.cycleFor(st); ok {
			cycles[sku] = cycle
		}
	}
	return cycles
}

func (e *ReorderCycleEngine) cycleFor(st *skuStats) (models.ReorderCycle, bool) {
	if len(st.times) < 2 {
		return models.ReorderCycle{}, false
	}

	gaps := stats.DropOutliers(stats.DayGaps(st.times), e.config.OutlierDays)
	if len(gaps) == 0 {
		return models.ReorderCycle{}, false
	}

	values := stats.Ints(gaps)
	mean := stats.Mean(values)
	consistency := models.ConsistencyLow
	if len(gaps) == 1 || stats.SampleStdDev(values) < e.config.HighConsistencyRatio*mean {
		consistency = models.ConsistencyHigh
	}

	return models.ReorderCycle{
		SKU:         st.sku,
		Name:        st.name,
		Category:    st.category,
		AverageDays: stats.Round(mean),
		Consistency: consistency,
		Intervals:   gaps,
		LastOrdered: st.lastOrdered(),
		OrderCount:  len(st.times),
	}, true
}

// sortedCycles returns cycles in SKU order so results never depend on map iteration
func sortedCycles(cycles map[string]models.ReorderCycle) []models.ReorderCycle {
	list := make([]models.ReorderCycle, 0, len(cycles))
	for _, c := range cycles {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].SKU < list[j].SKU
	})
	return list
}

var dueRank = map[string]int{
	models.UrgencyDueNow:   0,
	models.UrgencyDueSoon:  1,
	models.UrgencyUpcoming: 2,
}

// GetDueForReorder lists SKUs due within a week of now, most urgent first
func (e *ReorderCycleEngine) GetDueForReorder(h *models.PurchaseHistory, now time.Time) []models.DueItem {
	due := []models.DueItem{}

	for _, c := range sortedCycles(e.CalculateReorderCycles(h)) {
		if c.LastOrdered.IsZero() {
			continue
		}

		daysSince := stats.WholeDaysSince(c.LastOrdered, now)
		daysUntil := c.AverageDays - daysSince

		var urgency string
		switch {
		case daysUntil <= 0:
			urgency = models.UrgencyDueNow
		case daysUntil <= 2:
			urgency = models.UrgencyDueSoon
		case daysUntil <= 7:
			urgency = models.UrgencyUpcoming
		default:
			continue
		}

		due = append(due, models.DueItem{
			SKU:                c.SKU,
			Name:               c.Name,
			DaysSinceLastOrder: daysSince,
			CycleDays:          c.AverageDays,
			DaysUntilDue:       daysUntil,
			Urgency:            urgency,
			Consistency:        c.Consistency,
		})
	}

	sort.SliceStable(due, func(i, j int) bool {
		if dueRank[due[i].Urgency] != dueRank[due[j].Urgency] {
			return dueRank[due[i].Urgency] < dueRank[due[j].Urgency]
		}
		return due[i].DaysUntilDue < due[j].DaysUntilDue
	})
	return due
}

// cycleConfidence maps a consistency level onto a prediction confidence
func cycleConfidence(consistency string) float64 {
	if consistency == models.ConsistencyHigh {
		return 0.9
	}
	return 0.6
}
