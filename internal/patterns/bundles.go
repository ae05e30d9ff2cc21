package patterns

import (
	"math"
	"sort"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/stats"
)

// SuggestReorderBundles groups SKUs whose cycles round to the same week multiple,
// so they can share one delivery.
func (e *ReorderCycleEngine) SuggestReorderBundles(h *models.PurchaseHistory) []models.Bundle {
	buckets := make(map[int][]models.ReorderCycle)
	for _, c := range sortedCycles(e.CalculateReorderCycles(h)) {
		key := stats.RoundToMultiple(c.AverageDays, e.config.BundleBucketDays)
		buckets[key] = append(buckets[key], c)
	}

	bundles := []models.Bundle{}
	for bucket, members := range buckets {
		if len(members) < 2 {
			continue
		}

		bundle := models.Bundle{BucketDays: bucket}
		var cycleSum float64
		var high int
		for _, c := range members {
			bundle.Items = append(bundle.Items, models.BundleItem{
				SKU:         c.SKU,
				Name:        c.Name,
				CycleDays:   c.AverageDays,
				Consistency: c.Consistency,
			})
			cycleSum += float64(c.AverageDays)
			if c.Consistency == models.ConsistencyHigh {
				high++
			}
		}

		n := float64(len(members))
		bundle.CombinedCycleDays = stats.Round(cycleSum / n)
		bundle.SavingsPotential = math.Round(e.config.DeliveryFee*(n-1)*100) / 100
		bundle.ConvenienceScore = float64(high) / n
		bundles = append(bundles, bundle)
	}

	sort.Slice(bundles, func(i, j int) bool {
		if bundles[i].SavingsPotential != bundles[j].SavingsPotential {
			return bundles[i].SavingsPotential > bundles[j].SavingsPotential
		}
		return bundles[i].BucketDays < bundles[j].BucketDays
	})
	return bundles
}
