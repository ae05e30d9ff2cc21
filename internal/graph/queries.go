package graph

import (
	"context"
	"fmt"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"
	"purchase-patterns/internal/stats"
	"purchase-patterns/internal/util"
)

const usualProductsQuery = `
	MATCH (u:User {id: $userId})-[:PLACED]->(o:Order)
	WITH u, count(o) AS total
	MATCH (u)-[:PLACED]->(o:Order)-[c:CONTAINS]->(p:Product)
	WITH p, total, count(DISTINCT o) AS orders, collect(c.quantity) AS quantities
	WHERE toFloat(orders) / total >= $minFrequency
	RETURN p.sku AS sku,
		   p.name AS name,
		   p.price AS price,
		   orders,
		   total,
		   quantities
	ORDER BY orders DESC, sku
`

const buysEdgesQuery = `
	MATCH (u:User {id: $userId})-[b:BUYS]->(p:Product)
	WHERE b.timed_orders >= 2 AND b.last_ordered IS NOT NULL
	RETURN p.sku AS sku,
		   p.name AS name,
		   b.timed_orders AS timed,
		   b.first_ordered AS first,
		   b.last_ordered AS last
	ORDER BY sku
`

// UsualProducts returns the products found in at least minFrequency of the user's orders,
// scored the same way as the statistical engine
func (c *Client) UsualProducts(ctx context.Context, userID string, minFrequency float64) ([]models.UsualItem, error) {
	ctx, span := util.StartSpan(ctx, "GraphClient.UsualProducts")
	defer span.End()
	span.SetAttributes(util.UserAttr(userID))

	records, err := c.read(ctx, usualProductsQuery, map[string]any{
		"userId":       userID,
		"minFrequency": minFrequency,
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to get usual products: %w", err)
	}

	items, err := usualItemsFromRecords(records)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return items, nil
}

// ReorderSuggestions derives suggestions from the BUYS edges: the usual interval is the span
// between the first and last purchase divided by the gaps between them
func (c *Client) ReorderSuggestions(ctx context.Context, userID string, now time.Time, ratio float64) ([]models.ReorderSuggestion, error) {
	ctx, span := util.StartSpan(ctx, "GraphClient.ReorderSuggestions")
	defer span.End()
	span.SetAttributes(util.UserAttr(userID))

	records, err := c.read(ctx, buysEdgesQuery, map[string]any{"userId": userID})
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to get buys edges: %w", err)
	}

	suggestions, err := suggestionsFromRecords(records, now, ratio)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return suggestions, nil
}

func usualItemsFromRecords(records []map[string]any) ([]models.UsualItem, error) {
	items := make([]models.UsualItem, 0, len(records))
	for _, r := range records {
		sku, err := asString(r, "sku")
		if err != nil {
			return nil, err
		}
		orders, err := asInt(r, "orders")
		if err != nil {
			return nil, err
		}
		total, err := asInt(r, "total")
		if err != nil {
			return nil, err
		}
		quantities, err := asInts(r, "quantities")
		if err != nil {
			return nil, err
		}
		if total == 0 {
			continue
		}

		name, _ := asString(r, "name")
		price, _ := asFloat(r, "price")
		items = append(items, patterns.ScoreUsualItem(models.UsualItem{
			SKU:       sku,
			Name:      name,
			Price:     price,
			Frequency: float64(orders) / float64(total),
		}, quantities))
	}

	patterns.SortUsualItems(items)
	return items, nil
}

func suggestionsFromRecords(records []map[string]any, now time.Time, ratio float64) ([]models.ReorderSuggestion, error) {
	suggestions := []models.ReorderSuggestion{}
	for _, r := range records {
		sku, err := asString(r, "sku")
		if err != nil {
			return nil, err
		}
		timed, err := asInt(r, "timed")
		if err != nil {
			return nil, err
		}
		first, err := asTime(r, "first")
		if err != nil {
			return nil, err
		}
		last, err := asTime(r, "last")
		if err != nil {
			return nil, err
		}
		if timed < 2 {
			continue
		}

		interval := stats.Round(stats.DaysBetween(first, last) / float64(timed-1))
		name, _ := asString(r, "name")
		if s, ok := patterns.SuggestReorder(sku, name, stats.WholeDaysSince(last, now), interval, ratio); ok {
			suggestions = append(suggestions, s)
		}
	}

	patterns.SortSuggestions(suggestions)
	return suggestions, nil
}
