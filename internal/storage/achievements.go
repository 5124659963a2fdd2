package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/domain"
)

// AchievementRepository persists the achievement catalog, earned awards,
// and computed rarity.
type AchievementRepository struct {
	db *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(db *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// SeedCatalog inserts achievements by key, never overwriting an existing
// definition. Run once at stats worker startup.
func (r *AchievementRepository) SeedCatalog(ctx context.Context, achievements []domain.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}

	batch := &pgxBatch{}
	for _, a := range achievements {
		batch.Queue(`
			INSERT INTO achievements (
				id, key, name, description, icon, scope,
				criteria_stat, criteria_operator, criteria_value, criteria_agg_method,
				is_repeatable, is_active, created_at
			) VALUES (
				gen_random_uuid(), $1, $2, $3, $4, $5,
				$6, $7, $8, $9,
				$10, true, NOW()
			)
			ON CONFLICT (key) DO NOTHING
		`, a.Key, a.Name, a.Description, a.Icon, string(a.Scope),
			a.Criteria.Stat, string(a.Criteria.Operator), a.Criteria.Value, string(a.Criteria.AggMethod),
			a.IsRepeatable)
	}
	return batch.send(ctx, r.db)
}

// ActiveAchievements returns the full active catalog.
func (r *AchievementRepository) ActiveAchievements(ctx context.Context) ([]domain.Achievement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, key, name, description, icon, scope,
		       criteria_stat, criteria_operator, criteria_value, criteria_agg_method,
		       is_repeatable, is_active, created_at
		FROM achievements WHERE is_active = true
	`)
	if err != nil {
		return nil, fmt.Errorf("query active achievements: %w", err)
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		var scope, op, agg string
		if err := rows.Scan(&a.ID, &a.Key, &a.Name, &a.Description, &a.Icon, &scope,
			&a.Criteria.Stat, &op, &a.Criteria.Value, &agg,
			&a.IsRepeatable, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Scope = domain.AchievementScope(scope)
		a.Criteria.Operator = domain.Operator(op)
		a.Criteria.AggMethod = domain.AggMethod(agg)
		out = append(out, a)
	}
	return out, rows.Err()
}

// EarnedKeysForUser returns the set of "achievementID|feedID" keys a user
// already holds, used to skip already-earned (achievement, feed) pairs
// without an N+1 query per achievement.
func (r *AchievementRepository) EarnedKeysForUser(ctx context.Context, did string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `
		SELECT achievement_id, feed_id FROM user_achievements WHERE did = $1
	`, did)
	if err != nil {
		return nil, fmt.Errorf("query earned achievements for %s: %w", did, err)
	}
	defer rows.Close()

	earned := make(map[string]struct{})
	for rows.Next() {
		var achID, feedID string
		if err := rows.Scan(&achID, &feedID); err != nil {
			return nil, err
		}
		earned[achID+"|"+feedID] = struct{}{}
	}
	return earned, rows.Err()
}

// AwardBatch inserts earned achievements, ignoring ones already on file.
func (r *AchievementRepository) AwardBatch(ctx context.Context, awards []domain.UserAchievement) error {
	if len(awards) == 0 {
		return nil
	}

	batch := &pgxBatch{}
	for _, a := range awards {
		batch.Queue(`
			INSERT INTO user_achievements (achievement_id, did, feed_id, earned_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (achievement_id, did, feed_id) DO NOTHING
		`, a.AchievementID, a.DID, a.FeedID)
	}
	return batch.send(ctx, r.db)
}

// GlobalEarnerCounts returns, for every achievement, how many distinct
// users earned it GLOBALLY (feed_id = '').
func (r *AchievementRepository) GlobalEarnerCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT achievement_id, COUNT(DISTINCT did)
		FROM user_achievements WHERE feed_id = ''
		GROUP BY achievement_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query global earner counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var achID string
		var n int
		if err := rows.Scan(&achID, &n); err != nil {
			return nil, err
		}
		counts[achID] = n
	}
	return counts, rows.Err()
}

// TotalUserCount returns the total number of distinct posting users, the
// GLOBAL rarity denominator.
func (r *AchievementRepository) TotalUserCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT author_did) FROM posts`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("query total user count: %w", err)
	}
	return n, nil
}

// PerFeedEarnerCounts returns, for one feed, how many distinct users
// earned each achievement within that feed.
func (r *AchievementRepository) PerFeedEarnerCounts(ctx context.Context, feedID string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT achievement_id, COUNT(DISTINCT did)
		FROM user_achievements WHERE feed_id = $1
		GROUP BY achievement_id
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("query per-feed earner counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var achID string
		var n int
		if err := rows.Scan(&achID, &n); err != nil {
			return nil, err
		}
		counts[achID] = n
	}
	return counts, rows.Err()
}

// TotalPostersInFeed returns the number of distinct authors who have
// posted into feedID, the PER_FEED rarity denominator.
func (r *AchievementRepository) TotalPostersInFeed(ctx context.Context, feedID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT p.author_did)
		FROM posts p JOIN feed_posts fp ON fp.post_id = p.id
		WHERE fp.feed_id = $1
	`, feedID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("query total posters in feed %s: %w", feedID, err)
	}
	return n, nil
}

// UpsertRarity stores one computed rarity row, keyed on (achievement,
// feed); feedID == "" is the GLOBAL row.
func (r *AchievementRepository) UpsertRarity(ctx context.Context, rarity domain.AchievementFeedRarity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO achievement_feed_rarity (
			achievement_id, feed_id, earner_count, population_count,
			percentage, tier, label, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (achievement_id, feed_id) DO UPDATE SET
			earner_count = EXCLUDED.earner_count,
			population_count = EXCLUDED.population_count,
			percentage = EXCLUDED.percentage,
			tier = EXCLUDED.tier,
			label = EXCLUDED.label,
			computed_at = NOW()
	`, rarity.AchievementID, rarity.FeedID, rarity.EarnerCount, rarity.PopulationCount,
		rarity.Percentage, rarity.Tier, rarity.Label)
	if err != nil {
		return fmt.Errorf("upsert rarity for %s/%s: %w", rarity.AchievementID, rarity.FeedID, err)
	}
	return nil
}
