package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/domain"
)

// AggregateRepository persists materialized aggregate results.
type AggregateRepository struct {
	db *pgxpool.Pool
}

// NewAggregateRepository creates a new AggregateRepository.
func NewAggregateRepository(db *pgxpool.Pool) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// Upsert stores the latest result for a (feed, name, timeframe) cell,
// overwriting whatever was computed on the previous cycle.
func (r *AggregateRepository) Upsert(ctx context.Context, a domain.Aggregate) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO aggregates (feed_id, name, timeframe, result, computed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (feed_id, name, timeframe) DO UPDATE SET
			result = EXCLUDED.result,
			computed_at = NOW()
	`, a.FeedID, a.Name, string(a.Timeframe), a.Result)
	if err != nil {
		return fmt.Errorf("upsert aggregate %s/%s/%s: %w", a.FeedID, a.Name, a.Timeframe, err)
	}
	return nil
}

// Get fetches a single aggregate cell's stored result.
func (r *AggregateRepository) Get(ctx context.Context, feedID, name string, tf domain.Timeframe) (*domain.Aggregate, error) {
	var a domain.Aggregate
	a.FeedID, a.Name, a.Timeframe = feedID, name, tf
	err := r.db.QueryRow(ctx, `
		SELECT result, computed_at FROM aggregates
		WHERE feed_id = $1 AND name = $2 AND timeframe = $3
	`, feedID, name, string(tf)).Scan(&a.Result, &a.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("get aggregate %s/%s/%s: %w", feedID, name, tf, err)
	}
	return &a, nil
}
