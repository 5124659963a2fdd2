package commands

import (
	"fmt"

	"github.com/femavibes/feedmaster/internal/storage"
	"github.com/femavibes/feedmaster/pkg/config"
	"github.com/femavibes/feedmaster/pkg/database"
	"github.com/femavibes/feedmaster/pkg/logger"
	"github.com/femavibes/feedmaster/pkg/redis"
)

// app bundles the components every subcommand needs: config, logger,
// database pool, optional Redis client, and the repository layer built
// on top of it.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
	redis  *redis.Client

	feeds        *storage.FeedRepository
	users        *storage.UserRepository
	posts        *storage.PostRepository
	aggregates   *storage.AggregateRepository
	userStats    *storage.UserStatsRepository
	achievements *storage.AchievementRepository
}

// newApp loads config, wires logging, connects to Postgres and (if
// enabled) Redis, and builds every repository used by the CLI's
// subcommands.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &app{
		cfg:          cfg,
		logger:       log,
		db:           db,
		redis:        redisClient,
		feeds:        storage.NewFeedRepository(db.Pool),
		users:        storage.NewUserRepository(db.Pool),
		posts:        storage.NewPostRepository(db.Pool),
		aggregates:   storage.NewAggregateRepository(db.Pool),
		userStats:    storage.NewUserStatsRepository(db.Pool),
		achievements: storage.NewAchievementRepository(db.Pool),
	}, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.logger.WithError(err).Warn("redis close failed")
	}
	a.db.Close()
}
