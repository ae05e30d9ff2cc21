package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/stats"

	"go.uber.org/zap"
)

const holidayLayout = "2006-01-02"

// PredictReorderDate projects the next order date of sku, adjusted for season when one is given
func (e *ReorderCycleEngine) PredictReorderDate(sku string, h *models.PurchaseHistory, season string) models.ReorderPrediction {
	prediction := models.ReorderPrediction{SKU: sku}

	c, ok := e.CalculateReorderCycles(h)[sku]
	if !ok || c.LastOrdered.IsZero() {
		prediction.Reason = "Not enough purchase history to predict a reorder date"
		return prediction
	}

	cycle := float64(c.AverageDays)
	confidence := cycleConfidence(c.Consistency)
	reasons := []string{fmt.Sprintf("Based on your %d-day reorder cycle", c.AverageDays)}

	if h.IsSeasonal(season, sku) {
		cycle, confidence = applySeasonalRule(listedSeasonalRule, cycle, confidence)
		reasons = append(reasons, fmt.Sprintf("seasonal item, ordered more often in %s", season))
	}
	if rule, ok := e.config.SeasonalRules[strings.ToLower(season)][c.Category]; ok {
		cycle, confidence = applySeasonalRule(rule, cycle, confidence)
		reasons = append(reasons, fmt.Sprintf("%s demand adjusted for %s", strings.ToLower(c.Category), season))
	}

	days := stats.Round(cycle)
	if days < 1 {
		days = 1
	}
	predicted := stats.AddDays(c.LastOrdered, days)

	prediction.PredictedDate = &predicted
	prediction.Confidence = stats.Clamp(confidence, 0, 1)
	prediction.CycleDays = days
	prediction.BaseCycleDays = c.AverageDays
	prediction.Reason = strings.Join(reasons, "; ")
	return prediction
}

func applySeasonalRule(rule SeasonalRule, cycle, confidence float64) (float64, float64) {
	if rule.CycleMultiplier > 0 {
		cycle *= rule.CycleMultiplier
	}
	if rule.MinCycleDays > 0 {
		cycle = math.Max(cycle, float64(rule.MinCycleDays))
	}
	if rule.ConfidenceMultiplier > 0 {
		confidence *= rule.ConfidenceMultiplier
	}
	return cycle, confidence
}

type holiday struct {
	date time.Time
	name string
}

// PredictWithHolidays pulls nextDate forward when it falls within a week before a holiday.
// Holidays are keyed by YYYY-MM-DD; unparseable keys are ignored.
func (e *ReorderCycleEngine) PredictWithHolidays(regularCycleDays int, nextDate time.Time, holidays map[string]string) models.HolidayAdjustment {
	result := models.HolidayAdjustment{
		RegularCycleDays: regularCycleDays,
		RegularDate:      nextDate,
		AdjustedDate:     nextDate,
		Reason:           "Regular cycle",
	}

	next := dateOnly(nextDate)
	for _, hd := range parseHolidays(holidays, nextDate.Location(), e.logger) {
		daysBefore := stats.Round(stats.DaysBetween(next, hd.date))
		if daysBefore < 0 || daysBefore > 7 {
			continue
		}

		shift := 2
		result.Reason = fmt.Sprintf("Ordering %s early ahead of %s", dayCount(shift), hd.name)
		candidate := stats.AddDays(hd.date, -3)
		if candidate.Before(next) {
			shift = stats.Round(stats.DaysBetween(candidate, next))
			result.Reason = fmt.Sprintf("Ordering %s early to be stocked up 3 days before %s", dayCount(shift), hd.name)
		}

		result.AdjustedDate = stats.AddDays(nextDate, -shift)
		result.DaysAdjusted = shift
		result.Holiday = hd.name
		return result
	}

	return result
}

func parseHolidays(holidays map[string]string, loc *time.Location, logger *zap.Logger) []holiday {
	parsed := make([]holiday, 0, len(holidays))
	for key, name := range holidays {
		date, err := time.ParseInLocation(holidayLayout, key, loc)
		if err != nil {
			logger.Debug("Ignoring malformed holiday date", zap.String("date", key), zap.Error(err))
			continue
		}
		parsed = append(parsed, holiday{date: date, name: name})
	}
	sort.Slice(parsed, func(i, j int) bool {
		return parsed[i].date.Before(parsed[j].date)
	})
	return parsed
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
