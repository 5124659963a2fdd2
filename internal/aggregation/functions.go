package aggregation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/domain"
)

// timeBoundaryClause returns a SQL fragment and args appendix applying a
// timeframe's lower bound to column, or an always-true fragment for
// allTime.
func timeBoundaryClause(column string, tf domain.Timeframe, now time.Time, argIndex int) (clause string, arg any, nextIndex int) {
	bound, bounded := tf.Bound(now)
	if !bounded {
		return "TRUE", nil, argIndex
	}
	return fmt.Sprintf("%s >= $%d", column, argIndex), bound, argIndex + 1
}

// PostCard is the denormalized shape returned for top posts/images/videos.
type PostCard struct {
	URI             string `json:"uri"`
	Text            string `json:"text"`
	AuthorDID       string `json:"author_did"`
	AuthorHandle    string `json:"author_handle"`
	LikeCount       int    `json:"like_count"`
	RepostCount     int    `json:"repost_count"`
	ReplyCount      int    `json:"reply_count"`
	EngagementScore int    `json:"engagement_score"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TopPosts returns the top-50 posts by engagement score for the window,
// optionally filtered to a capability flag column ("has_image",
// "has_video", or "" for no filter).
func TopPosts(ctx context.Context, db *pgxpool.Pool, feedID string, tf domain.Timeframe, capabilityFlag string) ([]byte, error) {
	now := time.Now()
	boundClause, boundArg, _ := timeBoundaryClause("p.created_at", tf, now, 2)

	flagClause := "TRUE"
	if capabilityFlag != "" {
		flagClause = "p." + capabilityFlag + " = TRUE"
	}

	query := fmt.Sprintf(`
		SELECT p.uri, p.text, p.author_did, u.handle, p.like_count, p.repost_count,
		       p.reply_count, p.engagement_score, p.thumbnail_url, p.created_at
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id
		JOIN users u ON u.did = p.author_did
		WHERE fp.feed_id = $1 AND %s AND %s
		ORDER BY p.engagement_score DESC, p.created_at DESC
		LIMIT 50
	`, flagClause, boundClause)

	var rows pgx.Rows
	var err error
	if boundArg != nil {
		rows, err = db.Query(ctx, query, feedID, boundArg)
	} else {
		rows, err = db.Query(ctx, query, feedID)
	}
	if err != nil {
		return nil, fmt.Errorf("query top posts: %w", err)
	}
	defer rows.Close()

	var cards []PostCard
	for rows.Next() {
		var c PostCard
		if err := rows.Scan(&c.URI, &c.Text, &c.AuthorDID, &c.AuthorHandle, &c.LikeCount,
			&c.RepostCount, &c.ReplyCount, &c.EngagementScore, &c.ThumbnailURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{"top": cards})
}

// UserScore is one user's aggregate weighted-engagement standing.
type UserScore struct {
	DID            string  `json:"did"`
	Handle         string  `json:"handle"`
	PostCount      int     `json:"post_count"`
	WeightedScore  float64 `json:"weighted_score"`
}

// TopUsers implements the drop-lowest weighted score: for each user,
// weighted = max(mean(all), mean(all minus one min)) * ln(count+1). A
// single-post user's "minus one min" mean degenerates to the full mean.
func TopUsers(ctx context.Context, db *pgxpool.Pool, feedID string) ([]byte, error) {
	rows, err := db.Query(ctx, `
		SELECT p.author_did, u.handle, p.engagement_score
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id
		JOIN users u ON u.did = p.author_did
		WHERE fp.feed_id = $1
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("query user scores: %w", err)
	}
	defer rows.Close()

	type acc struct {
		handle string
		scores []float64
	}
	byUser := make(map[string]*acc)
	for rows.Next() {
		var did, handle string
		var score int
		if err := rows.Scan(&did, &handle, &score); err != nil {
			return nil, err
		}
		a, ok := byUser[did]
		if !ok {
			a = &acc{handle: handle}
			byUser[did] = a
		}
		a.scores = append(a.scores, float64(score))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var users []UserScore
	for did, a := range byUser {
		weighted := dropLowestWeightedScore(a.scores)
		users = append(users, UserScore{DID: did, Handle: a.handle, PostCount: len(a.scores), WeightedScore: weighted})
	}

	sortUsersDesc(users)
	if len(users) > 50 {
		users = users[:50]
	}

	return json.Marshal(map[string]any{"users": users})
}

func dropLowestWeightedScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	all := mean(scores)
	if len(scores) == 1 {
		return all * math.Log(2)
	}

	minIdx, minVal := 0, scores[0]
	for i, s := range scores {
		if s < minVal {
			minIdx, minVal = i, s
		}
	}
	minusMin := make([]float64, 0, len(scores)-1)
	for i, s := range scores {
		if i != minIdx {
			minusMin = append(minusMin, s)
		}
	}

	best := math.Max(all, mean(minusMin))
	return best * math.Log(float64(len(scores))+1)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sortUsersDesc(users []UserScore) {
	for i := 1; i < len(users); i++ {
		for j := i; j > 0 && users[j].WeightedScore > users[j-1].WeightedScore; j-- {
			users[j], users[j-1] = users[j-1], users[j]
		}
	}
}

// TopHashtags groups distinct posts by normalized hashtag.
func TopHashtags(ctx context.Context, db *pgxpool.Pool, feedID string, tf domain.Timeframe) ([]byte, error) {
	now := time.Now()
	boundClause, boundArg, _ := timeBoundaryClause("p.created_at", tf, now, 2)

	query := fmt.Sprintf(`
		SELECT LOWER(tag) AS tag, COUNT(DISTINCT p.id) AS cnt
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id,
		LATERAL jsonb_array_elements_text(p.hashtags) AS tag
		WHERE fp.feed_id = $1 AND %s
		GROUP BY LOWER(tag)
		ORDER BY cnt DESC
		LIMIT 50
	`, boundClause)

	var res []byte
	var err error
	if boundArg != nil {
		res, err = queryHashtags(ctx, db, query, feedID, boundArg)
	} else {
		res, err = queryHashtags(ctx, db, query, feedID)
	}
	return res, err
}

func queryHashtags(ctx context.Context, db *pgxpool.Pool, query string, args ...any) ([]byte, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top hashtags: %w", err)
	}
	defer rows.Close()

	type tagCount struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}
	var tags []tagCount
	for rows.Next() {
		var t tagCount
		if err := rows.Scan(&t.Tag, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{"hashtags": tags})
}

// DomainOf strips a leading www. from a URL's host, matching
// urlparse(...).netloc.replace("www.", "").
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// TopLinksAndDomains unnests the links array and groups by raw link or by
// derived domain depending on byDomain.
func TopLinksAndDomains(ctx context.Context, db *pgxpool.Pool, feedID string, tf domain.Timeframe, byDomain bool) ([]byte, error) {
	now := time.Now()
	boundClause, boundArg, _ := timeBoundaryClause("p.created_at", tf, now, 2)

	query := fmt.Sprintf(`
		SELECT link
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id,
		LATERAL jsonb_array_elements_text(p.links) AS link
		WHERE fp.feed_id = $1 AND %s
	`, boundClause)

	var rows pgx.Rows
	var err error
	if boundArg != nil {
		rows, err = db.Query(ctx, query, feedID, boundArg)
	} else {
		rows, err = db.Query(ctx, query, feedID)
	}
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, err
		}
		key := link
		if byDomain {
			key = DomainOf(link)
		}
		if key == "" {
			continue
		}
		counts[key]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	type entry struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}
	var entries []entry
	for k, c := range counts {
		entries = append(entries, entry{Key: k, Count: c})
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Count > entries[j-1].Count; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	if len(entries) > 50 {
		entries = entries[:50]
	}

	field := "links"
	if byDomain {
		field = "domains"
	}
	return json.Marshal(map[string]any{field: entries})
}

// TopCards returns posts carrying both a link URL and link title, the
// "card" shape, under "cards", and under "news_cards" the subset whose
// link host is in newsDomains.
func TopCards(ctx context.Context, db *pgxpool.Pool, feedID string, tf domain.Timeframe, newsDomains map[string]struct{}) ([]byte, error) {
	now := time.Now()
	boundClause, boundArg, _ := timeBoundaryClause("p.created_at", tf, now, 2)

	query := fmt.Sprintf(`
		SELECT p.uri, p.link_url, p.link_title, p.link_description, p.thumbnail_url, p.engagement_score, p.created_at
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id
		WHERE fp.feed_id = $1 AND p.link_url IS NOT NULL AND p.link_url != ''
		      AND p.link_title IS NOT NULL AND p.link_title != '' AND %s
		ORDER BY p.engagement_score DESC
		LIMIT 200
	`, boundClause)

	var rows pgx.Rows
	var err error
	if boundArg != nil {
		rows, err = db.Query(ctx, query, feedID, boundArg)
	} else {
		rows, err = db.Query(ctx, query, feedID)
	}
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	type card struct {
		URI             string    `json:"uri"`
		LinkURL         string    `json:"link_url"`
		LinkTitle       string    `json:"link_title"`
		LinkDescription string    `json:"link_description"`
		ThumbnailURL    string    `json:"thumbnail_url"`
		EngagementScore int       `json:"engagement_score"`
		CreatedAt       time.Time `json:"created_at"`
	}

	var all, news []card
	for rows.Next() {
		var c card
		if err := rows.Scan(&c.URI, &c.LinkURL, &c.LinkTitle, &c.LinkDescription,
			&c.ThumbnailURL, &c.EngagementScore, &c.CreatedAt); err != nil {
			return nil, err
		}
		all = append(all, c)
		if isNewsDomain(c.LinkURL, newsDomains) {
			news = append(news, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(all) > 50 {
		all = all[:50]
	}
	if len(news) > 50 {
		news = news[:50]
	}

	return json.Marshal(map[string]any{"cards": all, "news_cards": news})
}

func isNewsDomain(rawURL string, newsDomains map[string]struct{}) bool {
	host := DomainOf(rawURL)
	_, ok := newsDomains[host]
	return ok
}
