package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/configfile"
	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
	"github.com/femavibes/feedmaster/pkg/config"
	"github.com/femavibes/feedmaster/pkg/logger"
)

// Scheduler runs the full (feed x aggregate x timeframe) cartesian
// product on a fixed tick, recomputing each cell that is due and
// updating the derived prominence set once the cycle's results are in.
type Scheduler struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *pgxpool.Pool

	feeds      *storage.FeedRepository
	users      *storage.UserRepository
	aggregates *storage.AggregateRepository

	geoConfig   *configfile.Watcher[configfile.GeoHashtagMap]
	newsConfig  *configfile.Watcher[configfile.NewsDomainSet]
}

// NewScheduler creates an aggregation Scheduler.
func NewScheduler(cfg *config.Config, log *logger.Logger, db *pgxpool.Pool, feeds *storage.FeedRepository, users *storage.UserRepository, aggregates *storage.AggregateRepository) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		logger:     log.WithField("worker", "aggregation"),
		db:         db,
		feeds:      feeds,
		users:      users,
		aggregates: aggregates,
		geoConfig:  configfile.NewWatcher(cfg.GeoHashtagConfigPath, configfile.DefaultGeoHashtagMap(), log),
		newsConfig: configfile.NewWatcher(cfg.NewsDomainsConfigPath, configfile.DefaultNewsDomainSet(), log),
	}
}

// Name identifies this job to the scheduler.
func (s *Scheduler) Name() string { return "aggregation" }

// Schedule drives a fixed-interval tick sized off AggregationConfig;
// robfig/cron's "@every" syntax takes a Go duration literal directly.
func (s *Scheduler) Schedule() string {
	return fmt.Sprintf("@every %ds", s.cfg.Aggregation.TickIntervalSeconds)
}

// Run executes one full aggregation cycle: every active feed, every
// declared (aggregate, timeframe) pair, skipping cells not yet due for
// recompute. A single cell's failure is logged and does not abort the
// rest of the cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	s.geoConfig.CheckReload()
	s.newsConfig.CheckReload()

	feeds, err := s.feeds.ActiveFeeds(ctx)
	if err != nil {
		return fmt.Errorf("list active feeds: %w", err)
	}

	newlyProminent := make(map[string]struct{})

	for _, feed := range feeds {
		for _, entry := range domain.DefaultAggregateSchedule {
			for _, tf := range entry.Timeframes {
				s.runCell(ctx, feed, entry.Name, tf, newlyProminent)
			}
		}
	}

	if err := s.updateProminence(ctx, "", newlyProminent); err != nil {
		s.logger.WithError(err).Error("prominence update failed")
	}

	return nil
}

func (s *Scheduler) runCell(ctx context.Context, feed domain.Feed, name string, tf domain.Timeframe, newlyProminent map[string]struct{}) {
	due, err := dueForRecompute(ctx, s.aggregates, feed.ID, name, tf)
	if err != nil || !due {
		return
	}

	log := s.logger.WithField("feed_id", feed.ID).WithField("aggregate", name).WithField("timeframe", string(tf))

	result, dids, err := s.compute(ctx, feed, name, tf)
	if err != nil {
		log.WithError(err).Error("aggregate computation failed")
		return
	}

	if err := s.aggregates.Upsert(ctx, domain.Aggregate{
		FeedID:    feed.ID,
		Name:      name,
		Timeframe: tf,
		Result:    result,
	}); err != nil {
		log.WithError(err).Error("aggregate upsert failed")
		return
	}

	for _, did := range dids {
		newlyProminent[did] = struct{}{}
	}
}

// compute dispatches to the function implementing name, returning both
// the marshaled result and the set of DIDs that result surfaces (used to
// maintain the cross-feed prominence set).
func (s *Scheduler) compute(ctx context.Context, feed domain.Feed, name string, tf domain.Timeframe) ([]byte, []string, error) {
	switch name {
	case "top_content":
		result, err := TopPosts(ctx, s.db, feed.ID, tf, "")
		return result, extractDIDs(result, didFieldsPostCards), err
	case "top_images":
		result, err := TopPosts(ctx, s.db, feed.ID, tf, "has_image")
		return result, extractDIDs(result, didFieldsPostCards), err
	case "top_videos":
		result, err := TopPosts(ctx, s.db, feed.ID, tf, "has_video")
		return result, extractDIDs(result, didFieldsPostCards), err
	case "top_users":
		result, err := TopUsers(ctx, s.db, feed.ID)
		return result, extractDIDs(result, didFieldsUserScores), err
	case "top_posters":
		result, err := TopPosters(ctx, s.db, feed.ID)
		return result, extractDIDs(result, didFieldsPosterCounts), err
	case "top_mentions":
		result, err := TopMentions(ctx, s.db, feed.ID)
		return result, extractDIDs(result, didFieldSpec{"mentions", "did"}), err
	case "top_hashtags":
		result, err := TopHashtags(ctx, s.db, feed.ID, tf)
		return result, nil, err
	case "top_links":
		result, err := TopLinksAndDomains(ctx, s.db, feed.ID, tf, false)
		return result, nil, err
	case "top_domains":
		result, err := TopLinksAndDomains(ctx, s.db, feed.ID, tf, true)
		return result, nil, err
	case "top_cards":
		result, err := TopCards(ctx, s.db, feed.ID, tf, s.newsConfig.Get())
		return result, nil, err
	case "geo":
		result, err := GeoAggregate(ctx, s.db, feed.ID, tf, s.geoConfig.Get())
		return result, nil, err
	case "streaks":
		result, err := PostingStreaks(ctx, s.db, feed.ID)
		return result, extractDIDs(result, didFieldsStreaks), err
	case "first_time_posters":
		bound, _ := tf.Bound(time.Now())
		result, err := FirstTimePosters(ctx, s.db, feed.ID, bound)
		return result, extractDIDs(result, didFieldsFirstTimePosters), err
	default:
		return nil, nil, fmt.Errorf("unknown aggregate %q", name)
	}
}
