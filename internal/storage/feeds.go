package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/domain"
)

// FeedRepository persists domain.Feed rows and feed/post membership.
type FeedRepository struct {
	db *pgxpool.Pool
}

// NewFeedRepository creates a new FeedRepository.
func NewFeedRepository(db *pgxpool.Pool) *FeedRepository {
	return &FeedRepository{db: db}
}

// ActiveFeeds returns every feed flagged active, used to drive the
// ingestion manager's per-feed listener set and the aggregation fan-out.
func (r *FeedRepository) ActiveFeeds(ctx context.Context) ([]domain.Feed, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, title, description, contrails_ws_url, bluesky_feed_uri,
		       tier, "order", avatar_url, like_count, is_active, owner_did,
		       created_at, updated_at
		FROM feeds
		WHERE is_active = true
		ORDER BY "order" ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active feeds: %w", err)
	}
	defer rows.Close()

	var feeds []domain.Feed
	for rows.Next() {
		var f domain.Feed
		if err := rows.Scan(&f.ID, &f.Name, &f.Title, &f.Description, &f.ContrailsWSURL,
			&f.BlueskyFeedURI, &f.Tier, &f.Order, &f.AvatarURL, &f.LikeCount,
			&f.IsActive, &f.OwnerDID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// UpsertFromConfig seeds a feed row from the feeds.json fallback config;
// an existing row is left unchanged. Only touched when the feed isn't already registered in
// the database, so DB-managed fields (like_count, owner_did) survive a
// config reload.
func (r *FeedRepository) UpsertFromConfig(ctx context.Context, f domain.Feed) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO feeds (id, name, title, description, contrails_ws_url,
			bluesky_feed_uri, tier, "order", is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
		ON CONFLICT (id) DO NOTHING
	`, f.ID, f.Name, f.Title, f.Description, f.ContrailsWSURL, f.BlueskyFeedURI,
		f.Tier, f.Order, f.IsActive)
	if err != nil {
		return fmt.Errorf("upsert feed from config: %w", err)
	}
	return nil
}

// InsertFeedPostBatch records (post, feed) membership, ignoring duplicates.
func (r *FeedRepository) InsertFeedPostBatch(ctx context.Context, memberships []domain.FeedPost) error {
	if len(memberships) == 0 {
		return nil
	}

	batch := &pgxBatch{}
	for _, m := range memberships {
		batch.Queue(`
			INSERT INTO feed_posts (post_id, feed_id, ingested_at, relevance_score)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (post_id, feed_id) DO NOTHING
		`, m.PostID, m.FeedID, m.IngestedAt, m.RelevanceScore)
	}
	return batch.send(ctx, r.db)
}
