package stats

import (
	"context"
	"fmt"

	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
)

// RarityCalculator periodically recomputes the earner-percentage and
// tier label for every achievement, once GLOBALLY and once per feed for
// PER_FEED achievements.
type RarityCalculator struct {
	achievements *storage.AchievementRepository
	feeds        *storage.FeedRepository
}

// NewRarityCalculator creates a RarityCalculator.
func NewRarityCalculator(achievements *storage.AchievementRepository, feeds *storage.FeedRepository) *RarityCalculator {
	return &RarityCalculator{achievements: achievements, feeds: feeds}
}

// Run recomputes GLOBAL rarity for every achievement and PER_FEED rarity
// for every active feed, upserting each result.
func (c *RarityCalculator) Run(ctx context.Context) error {
	catalog, err := c.achievements.ActiveAchievements(ctx)
	if err != nil {
		return fmt.Errorf("load achievement catalog: %w", err)
	}

	if err := c.runGlobal(ctx, catalog); err != nil {
		return err
	}

	feeds, err := c.feeds.ActiveFeeds(ctx)
	if err != nil {
		return fmt.Errorf("list active feeds: %w", err)
	}
	for _, feed := range feeds {
		if err := c.runPerFeed(ctx, catalog, feed.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *RarityCalculator) runGlobal(ctx context.Context, catalog []domain.Achievement) error {
	earnerCounts, err := c.achievements.GlobalEarnerCounts(ctx)
	if err != nil {
		return fmt.Errorf("load global earner counts: %w", err)
	}
	population, err := c.achievements.TotalUserCount(ctx)
	if err != nil {
		return fmt.Errorf("load total user count: %w", err)
	}

	for _, ach := range catalog {
		if ach.Scope != domain.ScopeGlobal {
			continue
		}
		earners := earnerCounts[ach.ID]
		pct, tier := domain.ComputeRarity(earners, population)
		rarity := domain.AchievementFeedRarity{
			AchievementID:   ach.ID,
			FeedID:          "",
			EarnerCount:     earners,
			PopulationCount: population,
			Percentage:      pct,
			Tier:            tier,
			Label:           tier + " (Global)",
		}
		if err := c.achievements.UpsertRarity(ctx, rarity); err != nil {
			return err
		}
	}
	return nil
}

func (c *RarityCalculator) runPerFeed(ctx context.Context, catalog []domain.Achievement, feedID string) error {
	earnerCounts, err := c.achievements.PerFeedEarnerCounts(ctx, feedID)
	if err != nil {
		return fmt.Errorf("load per-feed earner counts for %s: %w", feedID, err)
	}
	population, err := c.achievements.TotalPostersInFeed(ctx, feedID)
	if err != nil {
		return fmt.Errorf("load total posters for %s: %w", feedID, err)
	}

	for _, ach := range catalog {
		if ach.Scope != domain.ScopePerFeed {
			continue
		}
		earners := earnerCounts[ach.ID]
		pct, tier := domain.ComputeRarity(earners, population)
		rarity := domain.AchievementFeedRarity{
			AchievementID:   ach.ID,
			FeedID:          feedID,
			EarnerCount:     earners,
			PopulationCount: population,
			Percentage:      pct,
			Tier:            tier,
			Label:           tier + " (in this feed)",
		}
		if err := c.achievements.UpsertRarity(ctx, rarity); err != nil {
			return err
		}
	}
	return nil
}
