package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/femavibes/feedmaster/internal/storage"
	"github.com/femavibes/feedmaster/pkg/config"
	"github.com/femavibes/feedmaster/pkg/logger"
)

// Worker periodically folds newly ingested post counters into UserStats
// and then evaluates the achievement catalog against every author
// touched since the last pass.
type Worker struct {
	cfg    *config.Config
	logger *logger.Logger

	posts        *storage.PostRepository
	userStats    *storage.UserStatsRepository
	achievements *storage.AchievementRepository

	evaluator *CriteriaEvaluator
	rarity    *RarityCalculator

	lastProcessed     time.Time
	hasLastProcessed  bool
	lastRarityRun     time.Time
}

// NewWorker creates a stats Worker. The static achievement catalog is
// seeded separately, by SeedCatalog.
func NewWorker(cfg *config.Config, log *logger.Logger, posts *storage.PostRepository, userStats *storage.UserStatsRepository, achievements *storage.AchievementRepository, feeds *storage.FeedRepository) *Worker {
	return &Worker{
		cfg:          cfg,
		logger:       log.WithField("worker", "stats"),
		posts:        posts,
		userStats:    userStats,
		achievements: achievements,
		evaluator:    NewCriteriaEvaluator(userStats, achievements),
		rarity:       NewRarityCalculator(achievements, feeds),
	}
}

// Name identifies this job to the scheduler.
func (w *Worker) Name() string { return "stats" }

// Schedule drives a fixed-interval tick sized off StatsConfig; robfig/cron's
// "@every" syntax takes a Go duration literal directly.
func (w *Worker) Schedule() string {
	return fmt.Sprintf("@every %dm", w.cfg.Stats.IntervalMinutes)
}

// SeedCatalog loads the static achievement catalog into storage. Callers
// run this once before handing the Worker to a scheduler, since Run only
// covers a single cycle.
func (w *Worker) SeedCatalog(ctx context.Context) error {
	if err := w.achievements.SeedCatalog(ctx, Catalog); err != nil {
		return fmt.Errorf("seed achievement catalog: %w", err)
	}
	return nil
}

// Run executes a single stats cycle: merges newly ingested post counters,
// awards achievements to touched authors, and refreshes rarity tiers on
// its own coarser interval.
func (w *Worker) Run(ctx context.Context) error {
	return w.runCycle(ctx)
}

const mergeChunkSize = 500

func (w *Worker) runCycle(ctx context.Context) error {
	highWater, found, err := w.posts.MaxIngestedAt(ctx)
	if err != nil {
		return fmt.Errorf("query ingestion high-water mark: %w", err)
	}
	if !found {
		return nil
	}

	counters, err := w.posts.CountersSince(ctx, w.lastProcessed, w.hasLastProcessed)
	if err != nil {
		return fmt.Errorf("query counters since last pass: %w", err)
	}

	deltas := make([]storage.PostCounterDelta, len(counters))
	for i, c := range counters {
		deltas[i] = storage.PostCounterDelta{
			AuthorDID: c.AuthorDID,
			FeedID:    c.FeedID,
			Likes:     c.LikeCount,
			Reposts:   c.RepostCount,
			Replies:   c.ReplyCount,
			HasImage:  c.HasImage,
			HasVideo:  c.HasVideo,
			CreatedAt: c.CreatedAt,
		}
	}
	for start := 0; start < len(deltas); start += mergeChunkSize {
		end := start + mergeChunkSize
		if end > len(deltas) {
			end = len(deltas)
		}
		if err := w.userStats.MergeBatch(ctx, deltas[start:end]); err != nil {
			return fmt.Errorf("merge stats batch: %w", err)
		}
	}

	touched, err := w.userStats.TouchedDIDsSince(ctx, w.lastProcessed, w.hasLastProcessed)
	if err != nil {
		return fmt.Errorf("query touched dids: %w", err)
	}

	for _, did := range touched {
		if err := w.evaluator.EvaluateUser(ctx, did); err != nil {
			w.logger.WithError(err).WithField("did", did).Warn("achievement evaluation failed")
		}
	}

	w.lastProcessed = highWater
	w.hasLastProcessed = true

	rarityInterval := time.Duration(w.cfg.Stats.AchievementRarityHours) * time.Hour
	if time.Since(w.lastRarityRun) >= rarityInterval {
		if err := w.rarity.Run(ctx); err != nil {
			w.logger.WithError(err).Error("rarity computation failed")
		} else {
			w.lastRarityRun = time.Now()
		}
	}

	return nil
}
