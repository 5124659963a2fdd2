package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. Environment
// variables are read through Load's getEnv helper family and the
// optional bootstrap file's overrides.
type Config struct {
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig

	LogLevel  string
	LogFormat string

	Ingestion      IngestionConfig
	ProfileResolve ProfileResolveConfig
	Polling        PollingConfig
	Aggregation    AggregationConfig
	Stats          StatsConfig
	Engagement     EngagementConfig

	BlueskyAPIBase string

	GeoHashtagConfigPath string
	NewsDomainsConfigPath string
	FeedsConfigPath      string

	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration. Redis is optional: the profile
// cache and the Redis rate limiter degrade to no-ops when Enabled is false.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// IngestionConfig controls the firehose batcher.
type IngestionConfig struct {
	BatchSize            int
	BatchIntervalSeconds int
	StaleAuthorHours     int
}

// ProfileResolveConfig controls the profile-resolution staleness loop.
type ProfileResolveConfig struct {
	IntervalSeconds            int
	StaleHours                 int
	ProminentRefreshMinutes    int
	PlaceholderBatchLimit      int
	GeneralStaleBatchLimit     int
	GeneralStaleDays           int
}

// PollingConfig controls the engagement-counter polling worker.
type PollingConfig struct {
	LoopIntervalSeconds int
	BatchSize           int
	CycleLimit          int
	ConfigPath          string
}

// AggregationConfig controls the aggregation scheduler's outer tick.
type AggregationConfig struct {
	TickIntervalSeconds int
}

// StatsConfig controls the stats/achievements worker.
type StatsConfig struct {
	IntervalMinutes          int
	AchievementRarityHours   int
}

// EngagementConfig is the one weighted-engagement formula used everywhere.
type EngagementConfig struct {
	LikeWeight   int
	RepostWeight int
	ReplyWeight  int
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Ingestion: IngestionConfig{
			BatchSize:            getEnvAsInt("INGESTION_BATCH_SIZE", 100),
			BatchIntervalSeconds: getEnvAsInt("INGESTION_BATCH_INTERVAL_SECONDS", 5),
			StaleAuthorHours:     getEnvAsInt("INGESTION_STALE_AUTHOR_HOURS", 24),
		},

		ProfileResolve: ProfileResolveConfig{
			IntervalSeconds:         getEnvAsInt("PROFILE_REFRESH_INTERVAL_SECONDS", 60),
			StaleHours:              getEnvAsInt("PROFILE_STALE_HOURS", 24),
			ProminentRefreshMinutes: getEnvAsInt("PROFILE_PROMINENT_REFRESH_MINUTES", 30),
			PlaceholderBatchLimit:   getEnvAsInt("PROFILE_PLACEHOLDER_BATCH_LIMIT", 100),
			GeneralStaleBatchLimit:  getEnvAsInt("PROFILE_GENERAL_STALE_BATCH_LIMIT", 50),
			GeneralStaleDays:        getEnvAsInt("PROFILE_GENERAL_STALE_DAYS", 30),
		},

		Polling: PollingConfig{
			LoopIntervalSeconds: getEnvAsInt("POLLING_LOOP_INTERVAL_SECONDS", 30),
			BatchSize:           getEnvAsInt("POLLING_BATCH_SIZE", 25),
			CycleLimit:          getEnvAsInt("POLLING_CYCLE_LIMIT", 200),
			ConfigPath:          getEnv("POLLING_CONFIG_PATH", "config/polling_config.json"),
		},

		Aggregation: AggregationConfig{
			TickIntervalSeconds: getEnvAsInt("WORKER_POLLING_INTERVAL_SECONDS", 300),
		},

		Stats: StatsConfig{
			IntervalMinutes:        getEnvAsInt("STATS_WORKER_INTERVAL_MINUTES", 15),
			AchievementRarityHours: getEnvAsInt("ACHIEVEMENT_RARITY_INTERVAL_HOURS", 24),
		},

		Engagement: EngagementConfig{
			LikeWeight:   getEnvAsInt("ENGAGEMENT_LIKE_WEIGHT", 1),
			RepostWeight: getEnvAsInt("ENGAGEMENT_REPOST_WEIGHT", 2),
			ReplyWeight:  getEnvAsInt("ENGAGEMENT_REPLY_WEIGHT", 3),
		},

		BlueskyAPIBase: getEnv("BLUESKY_API_BASE", "https://public.api.bsky.app"),

		GeoHashtagConfigPath:  getEnv("GEO_HASHTAG_CONFIG_PATH", "config/geo_hashtags_mapping.json"),
		NewsDomainsConfigPath: getEnv("NEWS_DOMAINS_CONFIG_PATH", "config/news_domains.json"),
		FeedsConfigPath:       getEnv("FEEDS_CONFIG_PATH", "config/feeds.json"),

		HealthPort: getEnv("HEALTH_PORT", "8090"),
	}

	bootstrapPath := getEnv("BOOTSTRAP_CONFIG_PATH", "feedmaster.yaml")
	bootstrap, err := loadBootstrapFile(bootstrapPath)
	if err != nil {
		return nil, err
	}
	applyBootstrap(cfg, bootstrap)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
