package patterns

import (
	"testing"

	"purchase-patterns/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDetectHouseholdPatterns(t *testing.T) {
	h := history(
		order(0, item("MILK-001", 1, 3), item("MILK-002", 1, 4), item("BREAD-001", 1, 2)),
		order(7, item("MILK-001", 1, 3), item("MILK-003", 1, 4), item("CEREAL-001", 1, 5), item("CEREAL-002", 1, 5)),
	)

	hp := newCycles().DetectHouseholdPatterns(h)

	assert.Equal(t, 3, hp.HouseholdSizeEstimate)
	assert.Equal(t, 0.8, hp.Confidence)
	assert.Equal(t, map[string][]string{
		"MILK":   {"MILK-001", "MILK-002", "MILK-003"},
		"CEREAL": {"CEREAL-001", "CEREAL-002"},
	}, hp.VariantPatterns)
	assert.Equal(t, map[string][]string{
		"member_1": {"CEREAL-001", "MILK-001"},
		"member_2": {"CEREAL-002", "MILK-002"},
		"member_3": {"MILK-003"},
	}, hp.MemberPreferences)
}

func TestDetectHouseholdPatterns_ExplicitCategory(t *testing.T) {
	milk := item("MILK-001", 1, 3)
	milk.Category = "dairy"
	yogurt := item("YOGURT-001", 1, 2)
	yogurt.Category = "Dairy"

	hp := newCycles().DetectHouseholdPatterns(history(order(0, milk, yogurt)))

	assert.Equal(t, []string{"MILK-001", "YOGURT-001"}, hp.VariantPatterns["DAIRY"])
	assert.Equal(t, 2, hp.HouseholdSizeEstimate)
}

func TestDetectHouseholdPatterns_NoVariants(t *testing.T) {
	e := newCycles()

	empty := e.DetectHouseholdPatterns(nil)
	assert.Equal(t, 2, empty.HouseholdSizeEstimate)
	assert.Equal(t, 0.3, empty.Confidence)
	assert.Empty(t, empty.VariantPatterns)

	var items []models.LineItem
	for _, sku := range []string{"A-1", "B-1", "C-1", "D-1", "E-1", "F-1", "G-1", "H-1", "I-1", "J-1", "K-1", "L-1", "M-1", "N-1", "O-1"} {
		items = append(items, item(sku, 1, 1))
	}
	big := e.DetectHouseholdPatterns(history(order(0, items...)))
	assert.Equal(t, 3, big.HouseholdSizeEstimate)
	assert.Equal(t, 0.3, big.Confidence)
}
