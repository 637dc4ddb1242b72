package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/kri-ruj/linksaver/models"
)

// Stats aggregates the non-archived collection for the dashboard. ownerID
// narrows the view when non-empty.
func (s *Store) Stats(ctx context.Context, ownerID string) (*models.Stats, error) {
	stats := &models.Stats{
		ByStage:      make(map[string]int),
		ByCategory:   make(map[string]int),
		QualityTiers: map[string]int{"High": 0, "Medium": 0, "Low": 0},
	}

	base := sq.And{sq.Eq{"is_archived": false}}
	if ownerID != "" {
		base = append(base, sq.Eq{"owner_id": ownerID})
	}

	// Counts by stage.
	rows, err := s.builder().
		Select("stage", "COUNT(*)").
		From("articles").
		Where(base).
		GroupBy("stage").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats by stage: %w", err)
	}
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		stats.ByStage[stage] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Counts by category.
	rows, err = s.builder().
		Select("category", "COUNT(*)").
		From("articles").
		Where(base).
		GroupBy("category").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats by category: %w", err)
	}
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Completion velocity: articles completed in the last 7 days.
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	err = s.builder().
		Select("COUNT(*)").
		From("articles").
		Where(base).
		Where(sq.GtOrEq{"completed_at": weekAgo}).
		QueryRowContext(ctx).
		Scan(&stats.CompletedLast7d)
	if err != nil {
		return nil, fmt.Errorf("stats velocity: %w", err)
	}

	// Average reading time.
	err = s.builder().
		Select("COALESCE(AVG(reading_time_minutes), 0)").
		From("articles").
		Where(base).
		QueryRowContext(ctx).
		Scan(&stats.AvgReadingMinutes)
	if err != nil {
		return nil, fmt.Errorf("stats avg reading time: %w", err)
	}

	// Quality tiers over the priority score: High >= 80, Medium >= 60.
	rows, err = s.builder().
		Select("CASE WHEN priority_score >= 80 THEN 'High' WHEN priority_score >= 60 THEN 'Medium' ELSE 'Low' END AS tier", "COUNT(*)").
		From("articles").
		Where(base).
		GroupBy("tier").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats quality tiers: %w", err)
	}
	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tier count: %w", err)
		}
		stats.QualityTiers[tier] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.ByStage[string(models.StageCompleted)]) / float64(stats.Total)
	}

	return stats, nil
}
