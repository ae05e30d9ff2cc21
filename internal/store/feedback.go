package store

import (
	"context"
	"fmt"

	"purchase-patterns/internal/models"
)

type seasonalRow struct {
	Season string `db:"season"`
	SKU    string `db:"sku"`
}

// AddReorderFeedback records a user's correction of a suggested reorder interval
func (s *Store) AddReorderFeedback(ctx context.Context, userID string, fb *models.ReorderFeedback) error {
	err := s.db.GetContext(ctx, &fb.CreatedAt, `
		INSERT INTO reorder_feedback (user_id, sku, suggested_days, actual_days)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		userID, fb.SKU, fb.SuggestedDays, fb.ActualDays)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// GetReorderFeedback returns the feedback of a user, oldest first. An empty sku returns all.
func (s *Store) GetReorderFeedback(ctx context.Context, userID, sku string) ([]models.ReorderFeedback, error) {
	feedback := []models.ReorderFeedback{}
	err := s.db.SelectContext(ctx, &feedback, `
		SELECT sku, suggested_days, actual_days, created_at
		FROM reorder_feedback
		WHERE user_id = $1 AND ($2 = '' OR sku = $2)
		ORDER BY created_at, id`, userID, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	return feedback, nil
}

// SetSeasonalPatterns replaces the SKUs a user buys more of in season
func (s *Store) SetSeasonalPatterns(ctx context.Context, userID, season string, skus []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM seasonal_patterns WHERE user_id = $1 AND season = $2", userID, season); err != nil {
		return fmt.Errorf("failed to clear seasonal patterns: %w", err)
	}
	for _, sku := range skus {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO seasonal_patterns (user_id, season, sku)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, userID, season, sku)
		if err != nil {
			return fmt.Errorf("failed to insert seasonal pattern: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) getSeasonalPatterns(ctx context.Context, userID string) (map[string][]string, error) {
	var rows []seasonalRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT season, sku FROM seasonal_patterns WHERE user_id = $1 ORDER BY season, sku", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seasonal patterns: %w", err)
	}

	patterns := make(map[string][]string)
	for _, r := range rows {
		patterns[r.Season] = append(patterns[r.Season], r.SKU)
	}
	return patterns, nil
}
