package patterns

import (
	"purchase-patterns/internal/models"
	"purchase-patterns/internal/stats"
)

const (
	defaultBaseCycle = 7
	minLearnedCycle  = 1
	maxLearnedCycle  = 365
)

// LearnFromFeedback scales baseCycle by the average actual/suggested ratio of the user's
// corrections for sku. A non-positive baseCycle means the weekly default. Records with a
// non-positive day count still mark confidence as improved but do not move the cycle.
func (e *ReorderCycleEngine) LearnFromFeedback(sku string, h *models.PurchaseHistory, baseCycle int) models.FeedbackLearning {
	if baseCycle <= 0 {
		baseCycle = defaultBaseCycle
	}
	result := models.FeedbackLearning{
		SKU:          sku,
		LearnedCycle: clampCycle(baseCycle),
		AverageRatio: 1.0,
	}
	if h == nil {
		return result
	}

	var ratios []float64
	for _, fb := range h.ReorderFeedback {
		if fb.SKU != sku {
			continue
		}
		result.ConfidenceImproved = true
		if fb.SuggestedDays <= 0 || fb.ActualDays <= 0 {
			continue
		}
		ratios = append(ratios, float64(fb.ActualDays)/float64(fb.SuggestedDays))
	}
	if len(ratios) == 0 {
		return result
	}

	result.AverageRatio = stats.Mean(ratios)
	result.LearnedCycle = clampCycle(stats.Round(float64(baseCycle) * result.AverageRatio))
	result.FeedbackCount = len(ratios)
	return result
}

func clampCycle(days int) int {
	if days < minLearnedCycle {
		return minLearnedCycle
	}
	if days > maxLearnedCycle {
		return maxLearnedCycle
	}
	return days
}
