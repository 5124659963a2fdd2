package profileresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
	"github.com/femavibes/feedmaster/pkg/config"
	"github.com/femavibes/feedmaster/pkg/httputil"
	"github.com/femavibes/feedmaster/pkg/logger"
	"github.com/femavibes/feedmaster/pkg/redis"
)

const batchSize = 25

// Resolver batches DIDs against the public Bluesky profile API and
// upserts the results, resolving handle collisions first.
type Resolver struct {
	cfg    *config.Config
	logger *logger.Logger

	http  *httputil.Client
	cache *redis.Cache
	rl    *rate.Limiter

	users *storage.UserRepository
}

// New creates a Resolver.
func New(cfg *config.Config, log *logger.Logger, redisClient *redis.Client, users *storage.UserRepository) *Resolver {
	httpClient := httputil.New(cfg, log)
	httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(redisClient, "feedmaster"), redis.BlueskyAPIRateLimit)

	return &Resolver{
		cfg:    cfg,
		logger: log.WithField("component", "profile-resolver"),
		http:   httpClient,
		cache:  redis.NewCache(redisClient, "feedmaster"),
		rl:     rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		users:  users,
	}
}

// profilesResponse is the subset of app.bsky.actor.getProfiles this
// resolver needs.
type profilesResponse struct {
	Profiles []struct {
		DID            string `json:"did"`
		Handle         string `json:"handle"`
		DisplayName    string `json:"displayName"`
		Description    string `json:"description"`
		Avatar         string `json:"avatar"`
		FollowersCount int    `json:"followersCount"`
		FollowsCount   int    `json:"followsCount"`
		PostsCount     int    `json:"postsCount"`
		CreatedAt      string `json:"createdAt"`
	} `json:"profiles"`
}

// ResolveBatch resolves up to batchSize DIDs per HTTP call, resolves
// handle collisions, and upserts the results. A single batch's failure is
// logged and skipped; other batches still proceed.
func (r *Resolver) ResolveBatch(ctx context.Context, dids []string) error {
	for start := 0; start < len(dids); start += batchSize {
		end := start + batchSize
		if end > len(dids) {
			end = len(dids)
		}
		if err := r.resolveOneHTTPBatch(ctx, dids[start:end]); err != nil {
			r.logger.WithError(err).Warn("batch resolve failed, continuing with next batch")
		}
	}
	return nil
}

// ResolveOne is the single-DID convenience entry point matching
// trigger_profile_resolution.
func (r *Resolver) ResolveOne(ctx context.Context, did string) error {
	return r.resolveOneHTTPBatch(ctx, []string{did})
}

func (r *Resolver) resolveOneHTTPBatch(ctx context.Context, dids []string) error {
	if len(dids) == 0 {
		return nil
	}

	if err := r.rl.Wait(ctx); err != nil {
		return err
	}

	query := ""
	for i, did := range dids {
		if i > 0 {
			query += "&"
		}
		query += "actors=" + did
	}

	url := r.cfg.BlueskyAPIBase + "/xrpc/app.bsky.actor.getProfiles?" + query

	resp, err := r.http.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("getProfiles request: %w", err)
	}
	defer resp.Body.Close()

	var parsed profilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode getProfiles response: %w", err)
	}

	resolved := make([]domain.User, 0, len(parsed.Profiles))
	for _, p := range parsed.Profiles {
		u := domain.User{
			DID:            p.DID,
			Handle:         p.Handle,
			DisplayName:    p.DisplayName,
			Description:    p.Description,
			AvatarURL:      p.Avatar,
			FollowersCount: p.FollowersCount,
			FollowingCount: p.FollowsCount,
			PostsCount:     p.PostsCount,
		}
		if created, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			u.ExternalCreatedAt = &created
		}
		resolved = append(resolved, u)
	}

	if err := resolveHandleCollisions(ctx, r.users, resolved); err != nil {
		return fmt.Errorf("resolve handle collisions: %w", err)
	}

	if err := r.users.UpsertResolvedBatch(ctx, resolved); err != nil {
		return fmt.Errorf("upsert resolved profiles: %w", err)
	}

	for _, u := range resolved {
		_ = r.cache.Set(ctx, redis.ProfileKey(u.DID), u, redis.TTLMedium)
	}

	return nil
}
