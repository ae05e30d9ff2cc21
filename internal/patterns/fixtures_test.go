package patterns

import (
	"fmt"
	"time"

	"purchase-patterns/internal/models"
)

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func at(days int) time.Time {
	return day0.AddDate(0, 0, days)
}

func item(sku string, qty int, price float64) models.LineItem {
	return models.LineItem{SKU: sku, Name: sku + " name", Quantity: qty, Price: price}
}

func order(days int, items ...models.LineItem) models.Order {
	return models.Order{
		OrderID:   fmt.Sprintf("ord-%d", days),
		Timestamp: at(days),
		Items:     items,
	}
}

func history(orders ...models.Order) *models.PurchaseHistory {
	return &models.PurchaseHistory{UserID: "user-1", Orders: orders}
}

// skuEvery builds a history where sku is bought on each of the given days
func skuEvery(sku string, days ...int) *models.PurchaseHistory {
	orders := make([]models.Order, 0, len(days))
	for _, d := range days {
		orders = append(orders, order(d, item(sku, 1, 2.50)))
	}
	return history(orders...)
}

func newUsual() *UsualBasketEngine {
	return NewUsualBasketEngine(DefaultConfig())
}

func newCycles() *ReorderCycleEngine {
	return NewReorderCycleEngine(DefaultConfig())
}
