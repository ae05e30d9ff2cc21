package patterns

import (
	"fmt"
	"math"
	"sort"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/stats"
)

const itemsPerMember = 5.0

// DetectHouseholdPatterns estimates household size from distinct variants of one product
// category bought together, e.g. whole and oat milk in the same order.
func (e *ReorderCycleEngine) DetectHouseholdPatterns(h *models.PurchaseHistory) models.HouseholdPattern {
	result := models.HouseholdPattern{
		MemberPreferences: map[string][]string{},
		VariantPatterns:   map[string][]string{},
		Confidence:        0.3,
	}

	variants := make(map[string]map[string]bool)
	var sizes []float64
	for _, order := range ordersOf(h) {
		sizes = append(sizes, float64(len(order.Items)))

		byCategory := make(map[string]map[string]bool)
		for _, item := range order.Items {
			if item.SKU == "" {
				continue
			}
			cat := item.CategoryKey()
			if byCategory[cat] == nil {
				byCategory[cat] = make(map[string]bool)
			}
			byCategory[cat][item.SKU] = true
		}

		for cat, skus := range byCategory {
			if len(skus) < 2 {
				continue
			}
			if variants[cat] == nil {
				variants[cat] = make(map[string]bool)
			}
			for sku := range skus {
				variants[cat][sku] = true
			}
		}
	}

	maxVariants := 0
	categories := make([]string, 0, len(variants))
	for cat, skus := range variants {
		list := make([]string, 0, len(skus))
		for sku := range skus {
			list = append(list, sku)
		}
		sort.Strings(list)
		result.VariantPatterns[cat] = list
		categories = append(categories, cat)
		if len(list) > maxVariants {
			maxVariants = len(list)
		}
	}
	sort.Strings(categories)

	estimate := stats.Round(math.Max(stats.Mean(sizes)/itemsPerMember, float64(maxVariants)))
	if estimate < 2 {
		estimate = 2
	}
	result.HouseholdSizeEstimate = estimate

	for _, cat := range categories {
		for i, sku := range result.VariantPatterns[cat] {
			member := fmt.Sprintf("member_%d", i%estimate+1)
			result.MemberPreferences[member] = append(result.MemberPreferences[member], sku)
		}
	}

	if len(variants) > 0 {
		result.Confidence = 0.8
	}
	return result
}
