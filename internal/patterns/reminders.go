package patterns

import (
	"fmt"
	"sort"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/stats"
)

var reminderRank = map[string]int{
	models.ReminderCritical: 0,
	models.ReminderHigh:     1,
	models.ReminderMedium:   2,
	models.ReminderLow:      3,
}

// GenerateReminders projects each cycle over the next daysAhead days starting at now and emits
// at most one reminder per SKU, on the first day that lands within a day of its cycle.
// A negative daysAhead uses the configured horizon.
func (e *ReorderCycleEngine) GenerateReminders(h *models.PurchaseHistory, now time.Time, daysAhead int) []models.Reminder {
	if daysAhead < 0 {
		daysAhead = e.config.ReminderDaysAhead
	}
	reminders := []models.Reminder{}

	for _, c := range sortedCycles(e.CalculateReorderCycles(h)) {
		if c.LastOrdered.IsZero() {
			continue
		}
		daysSince := stats.WholeDaysSince(c.LastOrdered, now)

		for offset := 0; offset < daysAhead; offset++ {
			atCheck := daysSince + offset
			if abs(atCheck-c.AverageDays) > 1 {
				continue
			}

			reminders = append(reminders, models.Reminder{
				SKU:          c.SKU,
				Name:         c.Name,
				Type:         models.ReminderTypeCycle,
				ReminderDate: stats.AddDays(now, offset),
				DaysFromNow:  offset,
				UrgencyLevel: offsetUrgency(offset),
				Message:      cycleMessage(c, daysSince, offset),
				Confidence:   cycleConfidence(c.Consistency),
				CycleDays:    c.AverageDays,
			})
			break
		}
	}

	sortReminders(reminders)
	return reminders
}

// UrgencyRank orders reminder urgency levels, 0 being the most severe
func UrgencyRank(level string) int {
	if rank, ok := reminderRank[level]; ok {
		return rank
	}
	return len(reminderRank)
}

func offsetUrgency(offset int) string {
	switch {
	case offset == 0:
		return models.ReminderCritical
	case offset <= 2:
		return models.ReminderHigh
	case offset <= 4:
		return models.ReminderMedium
	default:
		return models.ReminderLow
	}
}

func cycleMessage(c models.ReorderCycle, daysSince, offset int) string {
	if offset == 0 {
		return fmt.Sprintf("Time to reorder %s! You usually buy it every %s and it's been %s.",
			c.Name, dayCount(c.AverageDays), dayCount(daysSince))
	}
	return fmt.Sprintf("%s will be due in %s. You usually reorder it every %s.",
		c.Name, dayCount(offset), dayCount(c.AverageDays))
}

// dayCount renders n with a singular or plural unit
func dayCount(n int) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d day", n)
	}
	return fmt.Sprintf("%d days", n)
}

func sortReminders(reminders []models.Reminder) {
	sort.SliceStable(reminders, func(i, j int) bool {
		ri, rj := reminderRank[reminders[i].UrgencyLevel], reminderRank[reminders[j].UrgencyLevel]
		if ri != rj {
			return ri < rj
		}
		return reminders[i].DaysFromNow < reminders[j].DaysFromNow
	})
}

// GetStockoutPreventionReminders warns about critical items once they are within
// BufferDays of their usual reorder point.
func (e *ReorderCycleEngine) GetStockoutPreventionReminders(h *models.PurchaseHistory, now time.Time, opts models.StockoutOptions) []models.Reminder {
	reminders := []models.Reminder{}
	if len(opts.CriticalItems) == 0 {
		return reminders
	}

	cycles := e.CalculateReorderCycles(h)
	seen := make(map[string]bool, len(opts.CriticalItems))
	for _, sku := range opts.CriticalItems {
		if seen[sku] {
			continue
		}
		seen[sku] = true

		c, ok := cycles[sku]
		if !ok || c.LastOrdered.IsZero() {
			continue
		}

		daysSince := stats.WholeDaysSince(c.LastOrdered, now)
		if daysSince < c.AverageDays-opts.BufferDays {
			continue
		}
		remaining := c.AverageDays - daysSince

		urgency := models.ReminderMedium
		switch {
		case remaining <= 0:
			urgency = models.ReminderCritical
		case remaining <= 2:
			urgency = models.ReminderHigh
		}

		reminders = append(reminders, models.Reminder{
			SKU:          c.SKU,
			Name:         c.Name,
			Type:         models.ReminderTypeStockout,
			ReminderDate: now,
			UrgencyLevel: urgency,
			Message:      stockoutMessage(c.Name, remaining),
			Confidence:   cycleConfidence(c.Consistency),
			CycleDays:    c.AverageDays,
		})
	}

	sortReminders(reminders)
	return reminders
}

func stockoutMessage(name string, remaining int) string {
	switch {
	case remaining > 0:
		return fmt.Sprintf("Don't run out of %s: your usual reorder point is in %s.", name, dayCount(remaining))
	case remaining == 0:
		return fmt.Sprintf("Today is your usual reorder day for %s. Reorder now to avoid running out.", name)
	default:
		return fmt.Sprintf("You're %s past your usual reorder point for %s. Reorder now to avoid running out.", dayCount(-remaining), name)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
