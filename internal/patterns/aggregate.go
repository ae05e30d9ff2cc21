package patterns

import (
	"sort"
	"time"

	"purchase-patterns/internal/models"
)

// skuStats accumulates everything the engines learn about one SKU
type skuStats struct {
	sku        string
	name       string
	category   string
	price      float64
	orders     int
	quantities []int
	times      []time.Time
}

// lastOrdered returns the most recent timestamp, or zero if none is known
func (s *skuStats) lastOrdered() time.Time {
	var last time.Time
	for _, t := range s.times {
		if t.After(last) {
			last = t
		}
	}
	return last
}

// aggregation is the per-SKU view of a purchase history
type aggregation struct {
	totalOrders int
	skipped     int
	bySKU       map[string]*skuStats
	skus        []string
}

// chronological returns the orders sorted oldest first; untimed orders keep their position at the front
func chronological(orders []models.Order) []models.Order {
	sorted := make([]models.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// aggregate walks every order once. A SKU repeated within one order counts as a single
// occurrence whose quantities are summed.
func aggregate(h *models.PurchaseHistory) *aggregation {
	agg := &aggregation{bySKU: make(map[string]*skuStats)}
	if h == nil {
		return agg
	}

	agg.totalOrders = len(h.Orders)
	for _, order := range chronological(h.Orders) {
		if !order.HasTimestamp() {
			agg.skipped++
		}

		perOrder := make(map[string]int)
		var seen []string
		for _, item := range order.Items {
			if item.SKU == "" {
				continue
			}

			st, ok := agg.bySKU[item.SKU]
			if !ok {
				st = &skuStats{sku: item.SKU}
				agg.bySKU[item.SKU] = st
				agg.skus = append(agg.skus, item.SKU)
			}
			if item.Name != "" {
				st.name = item.Name
			}
			st.price = item.UnitPrice()
			st.category = item.CategoryKey()

			if _, dup := perOrder[item.SKU]; !dup {
				seen = append(seen, item.SKU)
			}
			perOrder[item.SKU] += item.Qty()
		}

		for _, sku := range seen {
			st := agg.bySKU[sku]
			st.orders++
			st.quantities = append(st.quantities, perOrder[sku])
			if order.HasTimestamp() {
				st.times = append(st.times, order.Timestamp)
			}
		}
	}

	for _, st := range agg.bySKU {
		if st.name == "" {
			st.name = st.sku
		}
	}
	sort.Strings(agg.skus)
	return agg
}

// frequency returns the fraction of orders containing the SKU
func (a *aggregation) frequency(st *skuStats) float64 {
	if a.totalOrders == 0 {
		return 0
	}
	return float64(st.orders) / float64(a.totalOrders)
}

// orderTimes returns the valid timestamps of all orders, sorted
func orderTimes(h *models.PurchaseHistory) []time.Time {
	if h == nil {
		return nil
	}
	times := make([]time.Time, 0, len(h.Orders))
	for _, o := range h.Orders {
		if o.HasTimestamp() {
			times = append(times, o.Timestamp)
		}
	}
	sort.Slice(times, func(i, j int) bool {
		return times[i].Before(times[j])
	})
	return times
}

func userOf(h *models.PurchaseHistory) string {
	if h == nil {
		return ""
	}
	return h.UserID
}

func ordersOf(h *models.PurchaseHistory) []models.Order {
	if h == nil {
		return nil
	}
	return h.Orders
}
