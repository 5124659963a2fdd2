package stats

import (
	"context"
	"fmt"

	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
)

// CriteriaEvaluator checks one user's UserStats rows against the active
// achievement catalog and awards whatever newly qualifies.
type CriteriaEvaluator struct {
	userStats    *storage.UserStatsRepository
	achievements *storage.AchievementRepository
}

// NewCriteriaEvaluator creates a CriteriaEvaluator.
func NewCriteriaEvaluator(userStats *storage.UserStatsRepository, achievements *storage.AchievementRepository) *CriteriaEvaluator {
	return &CriteriaEvaluator{userStats: userStats, achievements: achievements}
}

// EvaluateUser fetches did's stats rows and the active catalog, checks
// every achievement the user hasn't already earned, and awards the ones
// that now qualify.
func (e *CriteriaEvaluator) EvaluateUser(ctx context.Context, did string) error {
	rows, err := e.userStats.AllForUser(ctx, did)
	if err != nil {
		return fmt.Errorf("load stats for %s: %w", did, err)
	}
	if len(rows) == 0 {
		return nil
	}

	catalog, err := e.achievements.ActiveAchievements(ctx)
	if err != nil {
		return fmt.Errorf("load achievement catalog: %w", err)
	}

	earned, err := e.achievements.EarnedKeysForUser(ctx, did)
	if err != nil {
		return fmt.Errorf("load earned achievements for %s: %w", did, err)
	}

	byFeed := make(map[string]domain.UserStats, len(rows))
	perFeedRows := make([]domain.UserStats, 0, len(rows))
	for _, r := range rows {
		byFeed[r.FeedID] = r
		if r.FeedID != "" {
			perFeedRows = append(perFeedRows, r)
		}
	}

	var awards []domain.UserAchievement
	for _, ach := range catalog {
		if ach.Scope == domain.ScopeGlobal {
			if _, already := earned[ach.ID+"|"]; already {
				continue
			}
			actual := domain.AggregateStat(ach.Criteria, perFeedRows)
			if domain.Check(ach.Criteria, actual) {
				awards = append(awards, domain.UserAchievement{AchievementID: ach.ID, DID: did, FeedID: ""})
			}
			continue
		}

		for feedID, stat := range byFeed {
			if feedID == "" {
				continue // the GLOBAL row never satisfies a PER_FEED achievement
			}
			if _, already := earned[ach.ID+"|"+feedID]; already {
				continue
			}
			if domain.Check(ach.Criteria, stat.StatValue(ach.Criteria.Stat)) {
				awards = append(awards, domain.UserAchievement{AchievementID: ach.ID, DID: did, FeedID: feedID})
			}
		}
	}

	return e.achievements.AwardBatch(ctx, awards)
}
