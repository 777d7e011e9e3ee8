package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"ContentRanker/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "CONTENT_RANKER_CONFIG"
	redisURLEnv     = "REDIS_URL"
	databaseDSNEnv  = "DATABASE_DSN"
	databaseDrvEnv  = "DATABASE_DRIVER"
	logLevelEnv     = "CONTENT_RANKER_LOG_LEVEL"
	minScoreEnv     = "CONTENT_RANKER_MIN_SCORE"
	maxResultsEnv   = "CONTENT_RANKER_MAX_RESULTS"
)

// Dedup backends.
const (
	DedupMemory = "memory"
	DedupRedis  = "redis"
	DedupSQL    = "sql"
	DedupNone   = "none"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig              `yaml:"logging"`
	Processing domain.ProcessingOverrides `yaml:"processing"`
	Ranking    domain.RankingOverrides    `yaml:"ranking"`
	Dedup      DedupConfig                `yaml:"dedup"`
	Redis      RedisConfig                `yaml:"redis"`
	Database   DatabaseConfig             `yaml:"database"`
	Queue      QueueConfig                `yaml:"queue"`
	Scheduler  SchedulerConfig            `yaml:"scheduler"`
	Sites      []SiteConfig               `yaml:"sources"`
	Metrics    MetricsConfig              `yaml:"metrics"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DedupConfig chooses where cross-batch fingerprints live.
type DedupConfig struct {
	Backend   string        `yaml:"backend"`
	TTL       time.Duration `yaml:"ttl"`
	LRUSize   int           `yaml:"lruSize"`
	KeyPrefix string        `yaml:"keyPrefix"`
}

// RedisConfig is shared by the Redis fingerprint store and the stream queue.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig describes the SQL connection used for fingerprints and runs.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// QueueConfig controls emission of ranked items to the processor stream.
type QueueConfig struct {
	Enabled bool   `yaml:"enabled"`
	Stream  string `yaml:"stream"`
	MaxLen  int64  `yaml:"maxLen"`
}

// SchedulerConfig defines when scheduled runs fire.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// MetricsConfig sets the listen address of the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SiteConfig describes a single source with its scanner strategy.
type SiteConfig struct {
	Name     string            `yaml:"name"`
	Strategy string            `yaml:"strategy"`
	Targets  []TargetConfig    `yaml:"targets"`
	Options  map[string]string `yaml:"options"`
}

// TargetConfig holds a concrete feed URL or batch file path.
type TargetConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ProcessingConfig returns defaults with configured overrides applied.
func (c Config) ProcessingConfig() domain.ProcessingConfig {
	return domain.DefaultProcessingConfig().With(c.Processing)
}

// RankingConfig returns topic ranker defaults with overrides applied.
func (c Config) RankingConfig() domain.RankingConfig {
	return domain.DefaultRankingConfig().With(c.Ranking)
}

// Load reads YAML configuration from path, or from CONTENT_RANKER_CONFIG
// when path is empty, and applies environment overrides. Unreadable files
// fall back to defaults.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(redisURLEnv); v != "" {
		c.Redis.URL = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(databaseDrvEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(minScoreEnv); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err != nil {
			log.Printf("config: ignoring %s=%q: %v", minScoreEnv, v, err)
		} else {
			c.Processing.MinQualityScore = &f
		}
	}

	if v := os.Getenv(maxResultsEnv); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			log.Printf("config: ignoring %s=%q: %v", maxResultsEnv, v, err)
		} else {
			c.Processing.MaxResults = &n
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		tz = defaultTimezone
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	base.Processing = base.Processing.Merge(override.Processing)
	base.Ranking = mergeRanking(base.Ranking, override.Ranking)

	if override.Dedup.Backend != "" {
		base.Dedup.Backend = override.Dedup.Backend
	}
	if override.Dedup.TTL > 0 {
		base.Dedup.TTL = override.Dedup.TTL
	}
	if override.Dedup.LRUSize > 0 {
		base.Dedup.LRUSize = override.Dedup.LRUSize
	}
	if override.Dedup.KeyPrefix != "" {
		base.Dedup.KeyPrefix = override.Dedup.KeyPrefix
	}

	if override.Redis.URL != "" {
		base.Redis = override.Redis
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Queue.Enabled {
		base.Queue.Enabled = true
	}
	if override.Queue.Stream != "" {
		base.Queue.Stream = override.Queue.Stream
	}
	if override.Queue.MaxLen > 0 {
		base.Queue.MaxLen = override.Queue.MaxLen
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	return base
}

func mergeRanking(base, override domain.RankingOverrides) domain.RankingOverrides {
	if override.EngagementWeight != nil {
		base.EngagementWeight = override.EngagementWeight
	}
	if override.MonetizationWeight != nil {
		base.MonetizationWeight = override.MonetizationWeight
	}
	if override.RecencyWeight != nil {
		base.RecencyWeight = override.RecencyWeight
	}
	if override.TitleQualityWeight != nil {
		base.TitleQualityWeight = override.TitleQualityWeight
	}
	if override.MinimumScoreThreshold != nil {
		base.MinimumScoreThreshold = override.MinimumScoreThreshold
	}
	if override.MaxTopicsOutput != nil {
		base.MaxTopicsOutput = override.MaxTopicsOutput
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Dedup: DedupConfig{
			Backend:   DedupMemory,
			TTL:       7 * 24 * time.Hour,
			LRUSize:   10000,
			KeyPrefix: "contentranker:fp:",
		},
		Redis:     RedisConfig{URL: "redis://localhost:6379/0"},
		Database:  DatabaseConfig{Driver: "sqlite", DSN: ""},
		Queue:     QueueConfig{Enabled: false, Stream: "content:processor", MaxLen: 100000},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Sites: []SiteConfig{
			{
				Name:     "local-batch",
				Strategy: "json",
				Targets:  []TargetConfig{{Name: "items", URL: "items.json"}},
			},
		},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}
