package aggregation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
)

// minRecomputeInterval is the shortest allowed gap between recomputes of a
// given aggregate name, regardless of timeframe. Streaks and top-users
// scan every post a feed has ever seen, so they're recomputed less
// eagerly than the windowed content aggregates.
var minRecomputeInterval = map[string]time.Duration{
	"streaks":    10 * time.Minute,
	"top_users":  10 * time.Minute,
	"top_posters": 5 * time.Minute,
}

const defaultMinRecomputeInterval = 2 * time.Minute

// dueForRecompute checks the stored cell's computed_at against the
// name's minimum interval, skipping work a previous cycle already did
// recently enough.
func dueForRecompute(ctx context.Context, aggregates *storage.AggregateRepository, feedID, name string, tf domain.Timeframe) (bool, error) {
	existing, err := aggregates.Get(ctx, feedID, name, tf)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		// any other lookup failure: recompute rather than silently skip.
		return true, nil
	}

	interval, ok := minRecomputeInterval[name]
	if !ok {
		interval = defaultMinRecomputeInterval
	}

	return time.Since(existing.ComputedAt) >= interval, nil
}
