package domain

import "time"

// UserAchievement records that a user earned an achievement, scoped to a
// feed for PER_FEED achievements or FeedID == "" for GLOBAL ones. Keyed by
// (AchievementID, DID, FeedID); awarding is insert-only, never overwritten.
type UserAchievement struct {
	AchievementID string
	DID           string
	FeedID        string
	EarnedAt      time.Time
}

// AchievementFeedRarity is the rarity computed for one achievement within
// one scope: a GLOBAL row has FeedID == "" and a label suffixed "(Global)";
// a PER_FEED row is computed per feed with a label suffixed "(in this
// feed)". Upserted on (AchievementID, FeedID) every rarity cycle.
type AchievementFeedRarity struct {
	AchievementID    string
	FeedID           string // "" for the GLOBAL row
	EarnerCount      int
	PopulationCount  int
	Percentage       float64
	Tier             string
	Label            string
	ComputedAt       time.Time
}

// ComputeRarity derives percentage and tier from raw counts. population
// of zero (no posters yet) yields a zero percentage rather than dividing
// by zero.
func ComputeRarity(earners, population int) (percentage float64, tier string) {
	if population <= 0 {
		return 0, RarityTierFor(0)
	}
	pct := float64(earners) / float64(population) * 100
	return pct, RarityTierFor(pct)
}
