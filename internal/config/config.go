package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
	Ledger    LedgerConfig
	Batch     BatchConfig
	Notifier  NotifierConfig
	Health    HealthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Env          string
	ReadTimeout  string
	WriteTimeout string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SchedulerConfig struct {
	Timezone      string
	PenaltyCron   string
	ReconcileCron string
	LockTTL       string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type LedgerConfig struct {
	DuplicateWindowMS int
	PenaltyMilestones string
	CacheTTL          string
}

type BatchConfig struct {
	PageSize int
	Workers  int
}

type NotifierConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  string
}

type HealthConfig struct {
	Timeout string
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "60s")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 20)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCHEDULER_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("SCHEDULER_PENALTY_CRON", "0 0 6 * * *")
	v.SetDefault("SCHEDULER_RECONCILE_CRON", "0 30 2 * * *")
	v.SetDefault("SCHEDULER_LOCK_TTL", "30m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DUPLICATE_WINDOW_MS", 5000)
	v.SetDefault("PENALTY_MILESTONES", "1,3,7,15,30")
	v.SetDefault("LEDGER_CACHE_TTL", "5m")
	v.SetDefault("BATCH_PAGE_SIZE", 200)
	v.SetDefault("BATCH_WORKERS", 4)
	v.SetDefault("NOTIFIER_PROVIDER", "noop")
	v.SetDefault("NOTIFIER_TIMEOUT", "10s")
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	config := Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  v.GetString("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetString("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DATABASE_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Scheduler: SchedulerConfig{
			Timezone:      v.GetString("SCHEDULER_TIMEZONE"),
			PenaltyCron:   v.GetString("SCHEDULER_PENALTY_CRON"),
			ReconcileCron: v.GetString("SCHEDULER_RECONCILE_CRON"),
			LockTTL:       v.GetString("SCHEDULER_LOCK_TTL"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Ledger: LedgerConfig{
			DuplicateWindowMS: v.GetInt("DUPLICATE_WINDOW_MS"),
			PenaltyMilestones: v.GetString("PENALTY_MILESTONES"),
			CacheTTL:          v.GetString("LEDGER_CACHE_TTL"),
		},
		Batch: BatchConfig{
			PageSize: v.GetInt("BATCH_PAGE_SIZE"),
			Workers:  v.GetInt("BATCH_WORKERS"),
		},
		Notifier: NotifierConfig{
			Provider: v.GetString("NOTIFIER_PROVIDER"),
			APIKey:   v.GetString("NOTIFIER_API_KEY"),
			BaseURL:  v.GetString("NOTIFIER_BASE_URL"),
			Timeout:  v.GetString("NOTIFIER_TIMEOUT"),
		},
		Health: HealthConfig{
			Timeout: v.GetString("HEALTH_CHECK_TIMEOUT"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Batch.PageSize <= 0 {
		return fmt.Errorf("BATCH_PAGE_SIZE must be greater than 0")
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be greater than 0")
	}

	if c.Ledger.DuplicateWindowMS <= 0 {
		return fmt.Errorf("DUPLICATE_WINDOW_MS must be greater than 0")
	}

	if _, err := ParseMilestones(c.Ledger.PenaltyMilestones); err != nil {
		return fmt.Errorf("PENALTY_MILESTONES is invalid: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	// Scheduler specs carry a seconds field
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for key, spec := range map[string]string{
		"SCHEDULER_PENALTY_CRON":   c.Scheduler.PenaltyCron,
		"SCHEDULER_RECONCILE_CRON": c.Scheduler.ReconcileCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s must be a valid cron spec: %w", key, err)
		}
	}

	durations := []struct {
		key   string
		value string
	}{
		{"SERVER_READ_TIMEOUT", c.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout},
		{"DATABASE_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime},
		{"SCHEDULER_LOCK_TTL", c.Scheduler.LockTTL},
		{"LEDGER_CACHE_TTL", c.Ledger.CacheTTL},
		{"NOTIFIER_TIMEOUT", c.Notifier.Timeout},
		{"HEALTH_CHECK_TIMEOUT", c.Health.Timeout},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", d.key, err)
		}
	}

	switch c.Notifier.Provider {
	case "noop":
	case "whatsapp":
		if c.Notifier.BaseURL == "" {
			return fmt.Errorf("NOTIFIER_BASE_URL is required for the whatsapp provider")
		}
	default:
		return fmt.Errorf("NOTIFIER_PROVIDER must be noop or whatsapp, got %q", c.Notifier.Provider)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// RedisAddr returns host:port for the redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// ServerAddr returns host:port for the HTTP listener
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetDuplicateWindow returns the duplicate detection window as duration
func (c *Config) GetDuplicateWindow() time.Duration {
	return time.Duration(c.Ledger.DuplicateWindowMS) * time.Millisecond
}

// GetPenaltyMilestones returns the parsed days-overdue milestones
func (c *Config) GetPenaltyMilestones() []int {
	milestones, _ := ParseMilestones(c.Ledger.PenaltyMilestones)
	return milestones
}

// GetCacheTTL returns the ledger cache TTL as duration
func (c *Config) GetCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Ledger.CacheTTL)
	return ttl
}

// GetLockTTL returns the scheduler job lock TTL as duration
func (c *Config) GetLockTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Scheduler.LockTTL)
	return ttl
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Server.ReadTimeout)
	return timeout
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Server.WriteTimeout)
	return timeout
}

// GetConnMaxLifetime returns the database connection lifetime as duration
func (c *Config) GetConnMaxLifetime() time.Duration {
	lifetime, _ := time.ParseDuration(c.Database.ConnMaxLifetime)
	return lifetime
}

// GetNotifierTimeout returns the notifier HTTP timeout as duration
func (c *Config) GetNotifierTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Notifier.Timeout)
	return timeout
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// GetLocation returns the scheduler timezone
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseMilestones parses a comma-separated list of positive day counts.
func ParseMilestones(raw string) ([]int, error) {
	var out []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("milestone %q is not an integer", part)
		}
		if n < 1 {
			return nil, fmt.Errorf("milestone %d must be at least 1", n)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one milestone is required")
	}
	return out, nil
}
