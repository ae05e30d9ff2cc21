package patterns

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SeasonalRule adjusts the reorder cycle of a product category during a season
type SeasonalRule struct {
	CycleMultiplier      float64 `json:"cycle_multiplier"`
	ConfidenceMultiplier float64 `json:"confidence_multiplier"`
	MinCycleDays         int     `json:"min_cycle_days,omitempty"`
}

// Config holds the tunables of both engines
type Config struct {
	ConfidenceThreshold  float64
	UsualFrequencyMin    float64
	StapleFrequency      float64
	OccasionalFrequency  float64
	ReorderSuggestRatio  float64
	OutlierDays          int
	HighConsistencyRatio float64
	ReminderDaysAhead    int
	DeliveryFee          float64
	BundleBucketDays     int
	SeasonalConfidence   float64

	// season -> category -> rule
	SeasonalRules map[string]map[string]SeasonalRule
}

// UseDefault asks for the configured value of a threshold or horizon argument
const UseDefault = -1

// DefaultConfig returns the standard engine settings
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:  0.8,
		UsualFrequencyMin:    0.5,
		StapleFrequency:      0.75,
		OccasionalFrequency:  0.25,
		ReorderSuggestRatio:  0.8,
		OutlierDays:          90,
		HighConsistencyRatio: 0.2,
		ReminderDaysAhead:    7,
		DeliveryFee:          5.0,
		BundleBucketDays:     7,
		SeasonalConfidence:   0.7,
		SeasonalRules:        map[string]map[string]SeasonalRule{},
	}
}

// listedSeasonalRule applies to SKUs named in a history's seasonal_patterns
var listedSeasonalRule = SeasonalRule{
	CycleMultiplier:      0.7,
	ConfidenceMultiplier: 0.8,
}

// ParseSeasonalRules decodes season -> category -> rule from JSON. Keys are normalised
// the way histories are matched: seasons lower case, categories upper case.
func ParseSeasonalRules(data []byte) (map[string]map[string]SeasonalRule, error) {
	var raw map[string]map[string]SeasonalRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode seasonal rules: %w", err)
	}

	rules := make(map[string]map[string]SeasonalRule, len(raw))
	for season, categories := range raw {
		season = strings.ToLower(strings.TrimSpace(season))
		if rules[season] == nil {
			rules[season] = make(map[string]SeasonalRule, len(categories))
		}
		for category, rule := range categories {
			if rule.CycleMultiplier <= 0 || rule.ConfidenceMultiplier <= 0 {
				return nil, fmt.Errorf("seasonal rule %s/%s: multipliers must be positive", season, category)
			}
			rules[season][strings.ToUpper(strings.TrimSpace(category))] = rule
		}
	}
	return rules, nil
}
