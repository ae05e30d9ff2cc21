package patterns

import (
	"fmt"
	"math"
	"sort"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/stats"
	"purchase-patterns/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// NoHistoryMessage is shown to users without any orders
	NoHistoryMessage = "No purchase history yet. Order a few times to see your usual items!"
	// LearningMessage is shown when no item is confident enough for the basket
	LearningMessage = "We're still learning your usual items. Keep ordering and they'll show up here."
)

// UsualBasketEngine detects the items a user buys consistently and builds baskets from them
type UsualBasketEngine struct {
	config Config
	logger *zap.Logger
}

// NewUsualBasketEngine creates a new usual basket engine
func NewUsualBasketEngine(cfg Config) *UsualBasketEngine {
	return &UsualBasketEngine{
		config: cfg,
		logger: util.GetLogger(),
	}
}

// Config returns the engine settings
func (e *UsualBasketEngine) Config() Config {
	return e.config
}

// DetectUsualItems returns the SKUs present in at least half of the orders, ranked by confidence
func (e *UsualBasketEngine) DetectUsualItems(h *models.PurchaseHistory) []models.UsualItem {
	items := []models.UsualItem{}
	if len(ordersOf(h)) == 0 {
		return items
	}

	agg := aggregate(h)
	for _, sku := range agg.skus {
		st := agg.bySKU[sku]
		freq := agg.frequency(st)
		if freq < e.config.UsualFrequencyMin {
			continue
		}
		items = append(items, usualItemFrom(st, freq))
	}

	SortUsualItems(items)
	return items
}

func usualItemFrom(st *skuStats, freq float64) models.UsualItem {
	return ScoreUsualItem(models.UsualItem{
		SKU:       st.sku,
		Name:      st.name,
		Price:     st.price,
		Frequency: freq,
	}, st.quantities)
}

// ScoreUsualItem fills the usual quantity and confidence of item from the quantities it was
// ordered in: frequency weighted by how stable the quantity is.
func ScoreUsualItem(item models.UsualItem, quantities []int) models.UsualItem {
	consistency := 1.0
	if sd := stats.PopulationStdDev(stats.Ints(quantities)); sd > 0 {
		consistency = 1 / (1 + sd)
	}
	item.UsualQuantity = stats.Mode(quantities)
	item.Confidence = math.Min(item.Frequency*consistency, 1.0)
	return item
}

// SortUsualItems orders items by confidence, then frequency, then SKU
func SortUsualItems(items []models.UsualItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Confidence != items[j].Confidence {
			return items[i].Confidence > items[j].Confidence
		}
		if items[i].Frequency != items[j].Frequency {
			return items[i].Frequency > items[j].Frequency
		}
		return items[i].SKU < items[j].SKU
	})
}

// AnalyzeQuantityPatterns summarises the quantities ordered for every SKU
func (e *UsualBasketEngine) AnalyzeQuantityPatterns(h *models.PurchaseHistory) map[string]models.QuantityPattern {
	result := make(map[string]models.QuantityPattern)
	agg := aggregate(h)

	for _, sku := range agg.skus {
		qty := agg.bySKU[sku].quantities
		lo, hi := stats.MinMax(qty)

		variance := models.QuantityVariable
		switch hi - lo {
		case 0:
			variance = models.QuantityConsistent
		case 1:
			variance = models.QuantitySlightlyVariable
		}

		result[sku] = models.QuantityPattern{
			TypicalQuantity:  stats.Mode(qty),
			QuantityVariance: variance,
			MinQuantity:      lo,
			MaxQuantity:      hi,
			AverageQuantity:  math.Round(stats.Mean(stats.Ints(qty))*100) / 100,
		}
	}

	return result
}

// CreateUsualBasket assembles the items whose confidence reaches threshold
func (e *UsualBasketEngine) CreateUsualBasket(h *models.PurchaseHistory, threshold float64) models.UsualBasket {
	basket := models.UsualBasket{
		UserID: userOf(h),
		Items:  []models.BasketItem{},
	}
	if len(ordersOf(h)) == 0 {
		basket.Message = NoHistoryMessage
		return basket
	}

	usual := e.DetectUsualItems(h)
	quantities := e.AnalyzeQuantityPatterns(h)

	var confidenceSum float64
	for _, item := range usual {
		if item.Confidence < threshold {
			continue
		}

		qty := item.UsualQuantity
		if qp, ok := quantities[item.SKU]; ok && qp.TypicalQuantity > 0 {
			qty = qp.TypicalQuantity
		}

		basket.Items = append(basket.Items, models.BasketItem{
			SKU:        item.SKU,
			Name:       item.Name,
			Quantity:   qty,
			Price:      item.Price,
			Frequency:  item.Frequency,
			Confidence: item.Confidence,
			Reason:     frequencyReason(item.Frequency),
		})
		confidenceSum += item.Confidence
	}

	recalculate(&basket)
	if len(basket.Items) > 0 {
		basket.ConfidenceScore = confidenceSum / float64(len(basket.Items))
	} else {
		basket.Message = LearningMessage
	}

	e.logger.Debug("Usual basket created",
		zap.String("user_id", basket.UserID),
		zap.Int("items", basket.ItemsCount),
		zap.Float64("threshold", threshold))
	return basket
}

// frequencyReason buckets a frequency into a human readable reason
func frequencyReason(freq float64) string {
	switch {
	case freq >= 1.0:
		return models.ReasonEveryWeek
	case freq >= 0.75:
		return models.ReasonMostWeeks
	case freq >= 0.5:
		return models.ReasonFrequently
	default:
		return models.ReasonSometimes
	}
}

// ModifyUsualQuantities applies per-SKU quantity changes; a quantity of zero removes the item
func (e *UsualBasketEngine) ModifyUsualQuantities(basket models.UsualBasket, modifications map[string]int) models.UsualBasket {
	modified := basket
	modified.Items = make([]models.BasketItem, 0, len(basket.Items))

	for _, item := range basket.Items {
		if qty, ok := modifications[item.SKU]; ok {
			if qty <= 0 {
				continue
			}
			item.Quantity = qty
		}
		modified.Items = append(modified.Items, item)
	}

	recalculate(&modified)
	return modified
}

// recalculate refreshes the basket totals
func recalculate(basket *models.UsualBasket) {
	total := decimal.Zero
	for _, item := range basket.Items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	basket.TotalPrice = total.Round(2).InexactFloat64()
	basket.ItemsCount = len(basket.Items)
}

// LearnShoppingPatterns classifies the overall cadence and the staple versus occasional items
func (e *UsualBasketEngine) LearnShoppingPatterns(h *models.PurchaseHistory) models.ShoppingPatterns {
	result := models.ShoppingPatterns{
		ShoppingFrequency: models.CadenceUnknown,
		Staples:           []string{},
		Occasional:        []string{},
		ReorderIntervals:  map[string]int{},
	}
	if len(ordersOf(h)) == 0 {
		return result
	}

	agg := aggregate(h)
	e.logSkipped(h, agg.skipped)

	times := orderTimes(h)
	if gaps := stats.DayGaps(times); len(gaps) > 0 {
		result.AverageOrderInterval = stats.Mean(stats.Ints(gaps))
		result.ShoppingFrequency = cadence(result.AverageOrderInterval)
	}
	result.TypicalDay = typicalDay(times)

	for _, item := range e.DetectUsualItems(h) {
		if item.Frequency >= e.config.StapleFrequency {
			result.Staples = append(result.Staples, item.SKU)
		}
	}

	type freqSKU struct {
		sku  string
		freq float64
	}
	var occasional []freqSKU
	for _, sku := range agg.skus {
		st := agg.bySKU[sku]
		freq := agg.frequency(st)
		if freq >= e.config.OccasionalFrequency && freq < e.config.StapleFrequency {
			occasional = append(occasional, freqSKU{sku: sku, freq: freq})
		}
		if len(st.times) >= 2 {
			result.ReorderIntervals[sku] = meanInterval(st.times)
		}
	}
	sort.SliceStable(occasional, func(i, j int) bool {
		return occasional[i].freq > occasional[j].freq
	})
	for _, o := range occasional {
		result.Occasional = append(result.Occasional, o.sku)
	}

	return result
}

// cadence maps a mean gap in days onto a shopping frequency label
func cadence(meanGap float64) string {
	switch {
	case meanGap <= 8:
		return models.CadenceWeekly
	case meanGap <= 15:
		return models.CadenceBiWeekly
	case meanGap <= 32:
		return models.CadenceMonthly
	default:
		return models.CadenceOccasional
	}
}

// typicalDay returns the most common weekday name, or "" when no order is dated
func typicalDay(times []time.Time) string {
	if len(times) == 0 {
		return ""
	}
	days := make([]int, len(times))
	for i, t := range times {
		days[i] = int(t.Weekday())
	}
	return time.Weekday(stats.Mode(days)).String()
}

// meanInterval returns the rounded mean absolute day gap between purchases
func meanInterval(times []time.Time) int {
	gaps := stats.DayGaps(times)
	abs := make([]float64, len(gaps))
	for i, g := range gaps {
		abs[i] = math.Abs(float64(g))
	}
	return stats.Round(stats.Mean(abs))
}

// GetReorderSuggestions proposes SKUs whose usual interval has mostly elapsed at now
func (e *UsualBasketEngine) GetReorderSuggestions(h *models.PurchaseHistory, now time.Time) []models.ReorderSuggestion {
	suggestions := []models.ReorderSuggestion{}
	if len(ordersOf(h)) == 0 {
		return suggestions
	}

	learned := e.LearnShoppingPatterns(h)
	agg := aggregate(h)

	for _, sku := range agg.skus {
		interval, ok := learned.ReorderIntervals[sku]
		if !ok || interval <= 0 {
			continue
		}
		st := agg.bySKU[sku]
		last := st.lastOrdered()
		if last.IsZero() {
			continue
		}

		daysSince := stats.WholeDaysSince(last, now)
		if suggestion, ok := SuggestReorder(sku, st.name, daysSince, interval, e.config.ReorderSuggestRatio); ok {
			suggestions = append(suggestions, suggestion)
		}
	}

	SortSuggestions(suggestions)
	return suggestions
}

// SuggestReorder builds a suggestion once daysSince reaches ratio of the usual interval
func SuggestReorder(sku, name string, daysSince, interval int, ratio float64) (models.ReorderSuggestion, bool) {
	if interval <= 0 || float64(daysSince) < ratio*float64(interval) {
		return models.ReorderSuggestion{}, false
	}
	return models.ReorderSuggestion{
		SKU:                sku,
		Name:               name,
		DaysSinceLastOrder: daysSince,
		UsualInterval:      interval,
		Confidence:         math.Min(1.0, float64(daysSince)/float64(interval)),
		Message: fmt.Sprintf("It's been %s since you ordered %s. You usually reorder every %s.",
			dayCount(daysSince), name, dayCount(interval)),
	}, true
}

// SortSuggestions orders suggestions by descending confidence
func SortSuggestions(suggestions []models.ReorderSuggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
}

// GetSeasonalUsualItems flags usual items listed for season and adds listed items the user rarely buys
func (e *UsualBasketEngine) GetSeasonalUsualItems(h *models.PurchaseHistory, season string) []models.SeasonalUsualItem {
	usual := e.DetectUsualItems(h)
	result := make([]models.SeasonalUsualItem, 0, len(usual))

	present := make(map[string]bool, len(usual))
	for _, item := range usual {
		present[item.SKU] = true
		result = append(result, models.SeasonalUsualItem{
			UsualItem:  item,
			IsSeasonal: h.IsSeasonal(season, item.SKU),
		})
	}

	if h == nil {
		return result
	}

	agg := aggregate(h)
	for _, sku := range h.SeasonalSKUs(season) {
		if present[sku] {
			continue
		}
		present[sku] = true

		item := models.UsualItem{
			SKU:           sku,
			Name:          sku,
			UsualQuantity: 1,
			Confidence:    e.config.SeasonalConfidence,
		}
		if st, ok := agg.bySKU[sku]; ok {
			item.Name = st.name
			item.Price = st.price
			item.Frequency = agg.frequency(st)
			item.UsualQuantity = stats.Mode(st.quantities)
		}
		result = append(result, models.SeasonalUsualItem{UsualItem: item, IsSeasonal: true})
	}

	return result
}

// logSkipped records orders ignored by time-based computations
func (e *UsualBasketEngine) logSkipped(h *models.PurchaseHistory, skipped int) {
	if skipped > 0 {
		e.logger.Debug("Skipped orders with malformed timestamps",
			zap.String("user_id", userOf(h)),
			zap.Int("skipped", skipped))
	}
}
