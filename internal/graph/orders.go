package graph

import (
	"context"
	"fmt"
	"sort"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/util"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const recordOrderQuery = `
	MERGE (u:User {id: $userId})
	MERGE (o:Order {id: $orderId})
	SET o.placed_at = $placedAt
	MERGE (u)-[:PLACED]->(o)
	WITH o
	UNWIND $items AS item
	MERGE (p:Product {sku: item.sku})
	SET p.name = item.name, p.price = item.price, p.category = item.category
	MERGE (o)-[c:CONTAINS]->(p)
	SET c.quantity = item.quantity
`

// refreshBuysQuery recomputes the aggregated BUYS edges for the products of one order, so
// recording the same order twice leaves the graph unchanged.
const refreshBuysQuery = `
	MATCH (u:User {id: $userId})-[:PLACED]->(o:Order)-[:CONTAINS]->(p:Product)
	WHERE p.sku IN $skus
	WITH u, p,
		count(DISTINCT o) AS times,
		count(o.placed_at) AS timed,
		min(o.placed_at) AS first,
		max(o.placed_at) AS last
	MERGE (u)-[b:BUYS]->(p)
	SET b.times = times, b.timed_orders = timed, b.first_ordered = first, b.last_ordered = last
`

// RecordOrder merges the user, order and product nodes of one order and refreshes the
// user's BUYS edges to those products
func (c *Client) RecordOrder(ctx context.Context, userID string, order models.Order) error {
	ctx, span := util.StartSpan(ctx, "GraphClient.RecordOrder")
	defer span.End()

	params := orderParams(userID, order)
	err := c.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		if _, err := tx.Run(ctx, recordOrderQuery, params); err != nil {
			return fmt.Errorf("failed to merge order: %w", err)
		}
		if _, err := tx.Run(ctx, refreshBuysQuery, params); err != nil {
			return fmt.Errorf("failed to refresh buys edges: %w", err)
		}
		return nil
	})
	if err != nil {
		util.RecordError(span, err)
		return err
	}

	c.logger.Debug("Order recorded in graph",
		zap.String("user_id", userID),
		zap.String("order_id", order.OrderID),
		zap.Int("items", len(order.Items)))
	return nil
}

// orderParams flattens an order into query parameters. Lines of the same SKU are merged
// with their quantities summed.
func orderParams(userID string, order models.Order) map[string]any {
	bySKU := make(map[string]map[string]any)
	for _, item := range order.Items {
		if item.SKU == "" {
			continue
		}
		if existing, ok := bySKU[item.SKU]; ok {
			existing["quantity"] = existing["quantity"].(int64) + int64(item.Qty())
			existing["name"] = item.Name
			existing["price"] = item.UnitPrice()
			continue
		}
		bySKU[item.SKU] = map[string]any{
			"sku":      item.SKU,
			"name":     item.Name,
			"price":    item.UnitPrice(),
			"category": item.CategoryKey(),
			"quantity": int64(item.Qty()),
		}
	}

	skus := make([]string, 0, len(bySKU))
	for sku := range bySKU {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	items := make([]any, 0, len(skus))
	skuList := make([]any, 0, len(skus))
	for _, sku := range skus {
		items = append(items, bySKU[sku])
		skuList = append(skuList, sku)
	}

	var placedAt any
	if order.HasTimestamp() {
		placedAt = order.Timestamp.UTC()
	}

	return map[string]any{
		"userId":   userID,
		"orderId":  order.OrderID,
		"placedAt": placedAt,
		"items":    items,
		"skus":     skuList,
	}
}
