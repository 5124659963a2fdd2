package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/domain"
)

// PostRepository persists domain.Post rows.
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

// UpsertBatch inserts or refreshes posts, keyed by CID. A conflict on CID
// (the same record re-seen in another feed's firehose) refreshes the
// counters and polling fields and keeps the earlier of the stored and new
// IngestedAt, so IngestedAt is not moved forward by a re-sighting; text,
// embeds and CreatedAt keep their first-written values.
func (r *PostRepository) UpsertBatch(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	batch := &pgxBatch{}
	for _, p := range posts {
		hashtags, _ := json.Marshal(p.Hashtags)
		links, _ := json.Marshal(p.Links)
		mentions, _ := json.Marshal(p.Mentions)
		images, _ := json.Marshal(p.Images)
		facets, _ := json.Marshal(p.Facets)
		languages, _ := json.Marshal(p.Languages)
		var raw []byte
		if p.RawRecord != nil {
			raw, _ = json.Marshal(p.RawRecord)
		}

		batch.Queue(`
			INSERT INTO posts (
				id, uri, cid, author_did, text, created_at, ingested_at,
				like_count, repost_count, reply_count, quote_count, engagement_score,
				has_image, has_video, has_link, has_quote, has_mention, has_alt_text,
				link_url, link_title, link_description, thumbnail_url,
				aspect_ratio_width, aspect_ratio_height,
				hashtags, links, mentions, images, facets, raw_record,
				quoted_post_uri, quoted_post_cid, quoted_post_text, quoted_post_author_did,
				quoted_post_author_handle, quoted_post_like_count, quoted_post_created_at,
				languages, next_poll_at, is_active_for_polling
			) VALUES (
				$1,$2,$3,$4,$5,$6,$7,
				$8,$9,$10,$11,$12,
				$13,$14,$15,$16,$17,$18,
				$19,$20,$21,$22,
				$23,$24,
				$25,$26,$27,$28,$29,$30,
				$31,$32,$33,$34,
				$35,$36,$37,
				$38,$39,$40
			)
			ON CONFLICT (cid) DO UPDATE SET
				ingested_at = LEAST(posts.ingested_at, EXCLUDED.ingested_at),
				like_count = EXCLUDED.like_count,
				repost_count = EXCLUDED.repost_count,
				reply_count = EXCLUDED.reply_count,
				quote_count = EXCLUDED.quote_count,
				engagement_score = EXCLUDED.engagement_score,
				next_poll_at = EXCLUDED.next_poll_at,
				is_active_for_polling = EXCLUDED.is_active_for_polling
		`,
			p.ID, p.URI, p.CID, p.AuthorDID, p.Text, p.CreatedAt, p.IngestedAt,
			p.LikeCount, p.RepostCount, p.ReplyCount, p.QuoteCount, p.EngagementScore,
			p.HasImage, p.HasVideo, p.HasLink, p.HasQuote, p.HasMention, p.HasAltText,
			p.LinkURL, p.LinkTitle, p.LinkDescription, p.ThumbnailURL,
			p.AspectRatioWidth, p.AspectRatioHeight,
			hashtags, links, mentions, images, facets, raw,
			p.QuotedPostURI, p.QuotedPostCID, p.QuotedPostText, p.QuotedPostAuthorDID,
			p.QuotedPostAuthorHandle, p.QuotedPostLikeCount, p.QuotedPostCreatedAt,
			languages, p.NextPollAt, p.IsActiveForPolling,
		)
	}
	return batch.send(ctx, r.db)
}

// DueForPolling returns up to limit active posts whose next_poll_at has
// elapsed, oldest-due-first.
func (r *PostRepository) DueForPolling(ctx context.Context, limit int) ([]domain.Post, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, uri, cid, author_did, created_at, like_count, repost_count,
		       reply_count, quote_count, next_poll_at
		FROM posts
		WHERE is_active_for_polling = true AND next_poll_at <= NOW()
		ORDER BY next_poll_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query due posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.URI, &p.CID, &p.AuthorDID, &p.CreatedAt,
			&p.LikeCount, &p.RepostCount, &p.ReplyCount, &p.QuoteCount, &p.NextPollAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpdateCountersBatch applies refreshed counters and the next poll
// schedule (or retirement) for a batch of polled posts.
func (r *PostRepository) UpdateCountersBatch(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	batch := &pgxBatch{}
	for _, p := range posts {
		batch.Queue(`
			UPDATE posts SET
				like_count = $2, repost_count = $3, reply_count = $4, quote_count = $5,
				engagement_score = $6, next_poll_at = $7, is_active_for_polling = $8
			WHERE id = $1
		`, p.ID, p.LikeCount, p.RepostCount, p.ReplyCount, p.QuoteCount,
			p.EngagementScore, p.NextPollAt, p.IsActiveForPolling)
	}
	return batch.send(ctx, r.db)
}

// FeedPostCounter is one (post, feed) pair's counters as of the stats
// worker's last pass, the raw material for UserStatsRepository.MergeBatch.
type FeedPostCounter struct {
	AuthorDID string
	FeedID    string
	LikeCount int
	RepostCount int
	ReplyCount  int
	HasImage  bool
	HasVideo  bool
	CreatedAt time.Time
}

// CountersSince returns one row per (post, feed) membership ingested
// after since (or every membership, if hasSince is false), the
// incremental stats worker's merge source.
func (r *PostRepository) CountersSince(ctx context.Context, since time.Time, hasSince bool) ([]FeedPostCounter, error) {
	query := `
		SELECT p.author_did, fp.feed_id, p.like_count, p.repost_count, p.reply_count,
		       p.has_image, p.has_video, p.created_at
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id
	`
	var rows pgx.Rows
	var err error
	if hasSince {
		rows, err = r.db.Query(ctx, query+" WHERE p.ingested_at > $1", since)
	} else {
		rows, err = r.db.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query counters since: %w", err)
	}
	defer rows.Close()

	var out []FeedPostCounter
	for rows.Next() {
		var c FeedPostCounter
		if err := rows.Scan(&c.AuthorDID, &c.FeedID, &c.LikeCount, &c.RepostCount,
			&c.ReplyCount, &c.HasImage, &c.HasVideo, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MaxIngestedAt returns the latest ingested_at across all posts, used as
// the stats worker's incremental high-water mark. Returns zero time and
// false when the table is empty (triggering a full rebuild).
func (r *PostRepository) MaxIngestedAt(ctx context.Context) (time.Time, bool, error) {
	var t *time.Time
	err := r.db.QueryRow(ctx, `SELECT MAX(ingested_at) FROM posts`).Scan(&t)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query max ingested_at: %w", err)
	}
	if t == nil {
		return time.Time{}, false, nil
	}
	return *t, true, nil
}
