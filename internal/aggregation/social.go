package aggregation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// posterCount is the shared shape for top-posters-by-count and
// top-mentions: a DID with a distinct-post tally.
type posterCount struct {
	DID       string `json:"did"`
	Handle    string `json:"handle"`
	PostCount int    `json:"post_count"`
}

// TopPosters ranks authors in a feed by distinct post count, all-time.
func TopPosters(ctx context.Context, db *pgxpool.Pool, feedID string) ([]byte, error) {
	rows, err := db.Query(ctx, `
		SELECT p.author_did, u.handle, COUNT(DISTINCT p.id) AS cnt
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id
		JOIN users u ON u.did = p.author_did
		WHERE fp.feed_id = $1
		GROUP BY p.author_did, u.handle
		ORDER BY cnt DESC
		LIMIT 50
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("query top posters: %w", err)
	}
	defer rows.Close()

	posters, err := scanPosterCounts(rows)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"posters": posters})
}

// TopMentions ranks mentioned DIDs by how many distinct posts mention
// them, all-time.
func TopMentions(ctx context.Context, db *pgxpool.Pool, feedID string) ([]byte, error) {
	rows, err := db.Query(ctx, `
		SELECT mention, u.handle, COUNT(DISTINCT p.id) AS cnt
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id,
		LATERAL jsonb_array_elements_text(p.mentions) AS mention
		LEFT JOIN users u ON u.did = mention
		WHERE fp.feed_id = $1
		GROUP BY mention, u.handle
		ORDER BY cnt DESC
		LIMIT 50
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("query top mentions: %w", err)
	}
	defer rows.Close()

	mentions, err := scanPosterCounts(rows)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"mentions": mentions})
}

func scanPosterCounts(rows pgx.Rows) ([]posterCount, error) {
	var out []posterCount
	for rows.Next() {
		var p posterCount
		if err := rows.Scan(&p.DID, &p.Handle, &p.PostCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FirstTimePoster is a DID whose earliest known post in the feed fell
// inside the aggregation window, keyed on ingested_at rather than
// created_at so backfilled historical posts never retroactively count
// as "first" appearances.
type FirstTimePoster struct {
	DID         string    `json:"did"`
	Handle      string    `json:"handle"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// FirstTimePosters finds authors whose earliest post ingestion in this
// feed occurred within the window.
func FirstTimePosters(ctx context.Context, db *pgxpool.Pool, feedID string, windowStart time.Time) ([]byte, error) {
	rows, err := db.Query(ctx, `
		SELECT p.author_did, u.handle, MIN(fp.ingested_at) AS first_seen
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id
		JOIN users u ON u.did = p.author_did
		WHERE fp.feed_id = $1
		GROUP BY p.author_did, u.handle
		HAVING MIN(fp.ingested_at) >= $2
		ORDER BY first_seen DESC
		LIMIT 200
	`, feedID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("query first-time posters: %w", err)
	}
	defer rows.Close()

	var posters []FirstTimePoster
	for rows.Next() {
		var p FirstTimePoster
		if err := rows.Scan(&p.DID, &p.Handle, &p.FirstSeenAt); err != nil {
			return nil, err
		}
		posters = append(posters, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{"first_time_posters": posters})
}

// StreakResult reports a user's longest historical posting streak and
// whether that longest streak is still active.
type StreakResult struct {
	DID            string `json:"did"`
	Handle         string `json:"handle"`
	LongestStreak  int    `json:"longest_streak"`
	IsActiveStreak bool   `json:"is_active_streak"`
}

// PostingStreaks computes, per author, the longest run of consecutive
// calendar days with at least one post, and whether that run ended today
// or yesterday. Only the longest run is reported: a shorter run that is
// still ongoing does not appear, and there is no separate list of
// currently active streaks.
//
// The computation is the classic gaps-and-islands pattern: collapse
// each user's post days to a distinct set, find the gap to the previous
// day per row via LAG, take a running sum of "new streak started" flags
// to group consecutive days, then measure each group's length.
func PostingStreaks(ctx context.Context, db *pgxpool.Pool, feedID string) ([]byte, error) {
	rows, err := db.Query(ctx, `
		WITH user_daily_posts AS (
			SELECT DISTINCT p.author_did, u.handle, p.created_at::date AS post_date
			FROM posts p
			JOIN feed_posts fp ON fp.post_id = p.id
			JOIN users u ON u.did = p.author_did
			WHERE fp.feed_id = $1
		),
		daily_gaps AS (
			SELECT author_did, handle, post_date,
			       post_date - LAG(post_date) OVER (PARTITION BY author_did ORDER BY post_date) AS gap
			FROM user_daily_posts
		),
		streak_groups AS (
			SELECT author_did, handle, post_date,
			       SUM(CASE WHEN gap IS DISTINCT FROM 1 THEN 1 ELSE 0 END)
			           OVER (PARTITION BY author_did ORDER BY post_date) AS grp
			FROM daily_gaps
		),
		streak_lengths AS (
			SELECT author_did, handle, grp,
			       COUNT(*) AS streak_len,
			       MAX(post_date) AS streak_end
			FROM streak_groups
			GROUP BY author_did, handle, grp
		),
		longest_per_author AS (
			SELECT DISTINCT ON (author_did) author_did, handle, streak_len,
			       streak_end >= CURRENT_DATE - INTERVAL '1 day' AS is_active
			FROM streak_lengths
			ORDER BY author_did, streak_len DESC
		)
		SELECT author_did, handle, streak_len, is_active
		FROM longest_per_author
		WHERE streak_len > 1
		ORDER BY streak_len DESC
		LIMIT 50
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("query posting streaks: %w", err)
	}
	defer rows.Close()

	var streaks []StreakResult
	for rows.Next() {
		var s StreakResult
		if err := rows.Scan(&s.DID, &s.Handle, &s.LongestStreak, &s.IsActiveStreak); err != nil {
			return nil, err
		}
		streaks = append(streaks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{"streaks": streaks})
}
