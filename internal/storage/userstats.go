package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/domain"
)

// UserStatsRepository persists domain.UserStats rows.
type UserStatsRepository struct {
	db *pgxpool.Pool
}

// NewUserStatsRepository creates a new UserStatsRepository.
func NewUserStatsRepository(db *pgxpool.Pool) *UserStatsRepository {
	return &UserStatsRepository{db: db}
}

// PostCounterDelta is one post's counters, feed membership included, as
// consumed by the incremental stats merge.
type PostCounterDelta struct {
	AuthorDID string
	FeedID    string // "" contributes only to the GLOBAL row
	Likes     int
	Reposts   int
	Replies   int
	HasImage  bool
	HasVideo  bool
	CreatedAt time.Time
}

// MergeBatch folds a batch of post deltas into the GLOBAL row and the
// (did, feedID) row for every feed each post belongs to, chunked at the
// caller's discretion (the stats worker chunks at ~500 rows per the
// source implementation).
func (r *UserStatsRepository) MergeBatch(ctx context.Context, deltas []PostCounterDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	batch := &pgxBatch{}
	for _, d := range deltas {
		images, videos := 0, 0
		if d.HasImage {
			images = 1
		}
		if d.HasVideo {
			videos = 1
		}
		maxEngagement := d.Likes + d.Reposts + d.Replies

		feedScopes := []string{""}
		if d.FeedID != "" {
			feedScopes = append(feedScopes, d.FeedID)
		}
		for _, feedID := range feedScopes {
			batch.Queue(`
				INSERT INTO user_stats (
					did, feed_id, post_count, total_likes, total_reposts, total_replies,
					image_post_count, video_post_count, max_post_engagement,
					first_post_at, last_post_at
				) VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8, $9, $9)
				ON CONFLICT (did, feed_id) DO UPDATE SET
					post_count = user_stats.post_count + 1,
					total_likes = user_stats.total_likes + EXCLUDED.total_likes,
					total_reposts = user_stats.total_reposts + EXCLUDED.total_reposts,
					total_replies = user_stats.total_replies + EXCLUDED.total_replies,
					image_post_count = user_stats.image_post_count + EXCLUDED.image_post_count,
					video_post_count = user_stats.video_post_count + EXCLUDED.video_post_count,
					max_post_engagement = GREATEST(user_stats.max_post_engagement, EXCLUDED.max_post_engagement),
					first_post_at = LEAST(user_stats.first_post_at, EXCLUDED.first_post_at),
					last_post_at = GREATEST(user_stats.last_post_at, EXCLUDED.last_post_at)
			`, d.AuthorDID, feedID, d.Likes, d.Reposts, d.Replies, images, videos, maxEngagement, d.CreatedAt)
		}
	}
	return batch.send(ctx, r.db)
}

// AllForUser returns every (did, feedID) row for a user, GLOBAL row
// (feedID == "") included; callers filter by scope.
func (r *UserStatsRepository) AllForUser(ctx context.Context, did string) ([]domain.UserStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT did, feed_id, post_count, total_likes, total_reposts, total_replies,
		       image_post_count, video_post_count, max_post_engagement,
		       first_post_at, last_post_at
		FROM user_stats WHERE did = $1
	`, did)
	if err != nil {
		return nil, fmt.Errorf("query user stats for %s: %w", did, err)
	}
	defer rows.Close()

	var out []domain.UserStats
	for rows.Next() {
		var s domain.UserStats
		if err := rows.Scan(&s.DID, &s.FeedID, &s.PostCount, &s.TotalLikes, &s.TotalReposts,
			&s.TotalReplies, &s.ImagePostCount, &s.VideoPostCount, &s.MaxPostEngagement,
			&s.FirstPostAt, &s.LastPostAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TouchedDIDsSince returns the distinct authors of posts ingested after
// since, the candidate set for the next award pass.
func (r *UserStatsRepository) TouchedDIDsSince(ctx context.Context, since time.Time, hasSince bool) ([]string, error) {
	var rows pgx.Rows
	var err error
	if hasSince {
		rows, err = r.db.Query(ctx, `SELECT DISTINCT author_did FROM posts WHERE ingested_at > $1`, since)
	} else {
		rows, err = r.db.Query(ctx, `SELECT DISTINCT author_did FROM posts`)
	}
	if err != nil {
		return nil, fmt.Errorf("query touched dids: %w", err)
	}
	defer rows.Close()

	var dids []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, err
		}
		dids = append(dids, did)
	}
	return dids, rows.Err()
}
