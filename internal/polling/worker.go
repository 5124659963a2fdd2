package polling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/femavibes/feedmaster/internal/configfile"
	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
	"github.com/femavibes/feedmaster/pkg/config"
	"github.com/femavibes/feedmaster/pkg/httputil"
	"github.com/femavibes/feedmaster/pkg/logger"
)

// Worker re-polls live posts against the external metrics API on a fixed
// loop interval, retiring posts whose engagement no longer justifies the
// cost of tracking them.
type Worker struct {
	cfg    *config.Config
	logger *logger.Logger
	http   *httputil.Client
	rl     *rate.Limiter

	posts   *storage.PostRepository
	config  *configfile.Watcher[configfile.PollingConfig]
	weights domain.EngagementWeights
}

// NewWorker creates a polling Worker.
func NewWorker(cfg *config.Config, log *logger.Logger, posts *storage.PostRepository) *Worker {
	return &Worker{
		cfg:    cfg,
		logger: log.WithField("worker", "polling"),
		http:   httputil.New(cfg, log),
		rl:     rate.NewLimiter(rate.Every(time.Second), 1),
		posts:  posts,
		config: configfile.NewWatcher(cfg.Polling.ConfigPath, configfile.DefaultPollingConfig(), log),
		weights: domain.EngagementWeights{
			Like:   cfg.Engagement.LikeWeight,
			Repost: cfg.Engagement.RepostWeight,
			Reply:  cfg.Engagement.ReplyWeight,
		},
	}
}

// Name identifies this job to the scheduler.
func (w *Worker) Name() string { return "polling" }

// Schedule is unused by the cron-driven scheduler; polling runs its own
// internal ticker instead (see Run), matching the source's standalone
// while-loop worker process.
func (w *Worker) Schedule() string { return "" }

// Run loops until ctx is cancelled, polling a batch of due posts every
// POLLING_LOOP_INTERVAL_SECONDS.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(w.cfg.Polling.LoopIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.config.CheckReload()
			if err := w.runCycle(ctx); err != nil {
				w.logger.WithError(err).Error("polling cycle failed")
			}
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) error {
	due, err := w.posts.DueForPolling(ctx, w.cfg.Polling.CycleLimit)
	if err != nil {
		return fmt.Errorf("query due posts: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	cfg := w.config.Get()
	now := time.Now()

	for start := 0; start < len(due); start += w.cfg.Polling.BatchSize {
		end := start + w.cfg.Polling.BatchSize
		if end > len(due) {
			end = len(due)
		}
		batch := due[start:end]

		if err := w.rl.Wait(ctx); err != nil {
			return err
		}

		counts, err := w.fetchCounts(ctx, batch)
		if err != nil {
			w.logger.WithError(err).Warn("metrics fetch failed, skipping batch")
			continue
		}

		updated := make([]domain.Post, 0, len(batch))
		for _, p := range batch {
			c, ok := counts[p.URI]
			if !ok {
				// missing from the response: the post was deleted upstream
				p.Retire()
				updated = append(updated, p)
				continue
			}

			p.LikeCount, p.RepostCount, p.ReplyCount = c.likes, c.reposts, c.replies
			p.Rescore(w.weights)

			ageHours := now.Sub(p.CreatedAt).Hours()
			interval, retire := ScheduleNext(ageHours, p.EngagementScore, cfg.DeactivationRules, cfg.PollingTiers)
			if retire {
				p.Retire()
			} else {
				next := now.Add(interval)
				p.NextPollAt = &next
			}
			updated = append(updated, p)
		}

		if err := w.posts.UpdateCountersBatch(ctx, updated); err != nil {
			w.logger.WithError(err).Error("counter update batch failed")
		}
	}

	return nil
}

type postCounts struct {
	likes, reposts, replies int
}

type getPostsResponse struct {
	Posts []struct {
		URI         string `json:"uri"`
		LikeCount   int    `json:"likeCount"`
		RepostCount int    `json:"repostCount"`
		ReplyCount  int    `json:"replyCount"`
	} `json:"posts"`
}

func (w *Worker) fetchCounts(ctx context.Context, posts []domain.Post) (map[string]postCounts, error) {
	query := ""
	for i, p := range posts {
		if i > 0 {
			query += "&"
		}
		query += "uris=" + p.URI
	}

	url := w.cfg.BlueskyAPIBase + "/xrpc/app.bsky.feed.getPosts?" + query
	resp, err := w.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("getPosts request: %w", err)
	}
	defer resp.Body.Close()

	var parsed getPostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode getPosts response: %w", err)
	}

	out := make(map[string]postCounts, len(parsed.Posts))
	for _, p := range parsed.Posts {
		out[p.URI] = postCounts{likes: p.LikeCount, reposts: p.RepostCount, replies: p.ReplyCount}
	}
	return out, nil
}
