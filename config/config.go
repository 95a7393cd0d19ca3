package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config Application Configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Pages    PagesConfig    `mapstructure:"pages"`
	Audit    AuditConfig    `mapstructure:"audit"`
	InFlight InFlightConfig `mapstructure:"inflight"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// AppConfig Application Configuration
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"` // development, staging, production
}

// ServerConfig Server Configuration
type ServerConfig struct {
	Port            string          `mapstructure:"port"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig Rate Limiting Configuration
type RateLimitConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Rate       float64       `mapstructure:"rate"`        // Requests per second
	Burst      int           `mapstructure:"burst"`       // Burst capacity
	MaxClients int           `mapstructure:"max_clients"` // 同时跟踪的 IP 上限
	IdleTTL    time.Duration `mapstructure:"idle_ttl"`
}

// UpstreamConfig describes the marketplace REST backend the console reads from.
type UpstreamConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	AssetBaseURL  string        `mapstructure:"asset_base_url"`
	DefaultAvatar string        `mapstructure:"default_avatar"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// PagesConfig bounds the per-session page slots.
type PagesConfig struct {
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
	SlotTTL         time.Duration `mapstructure:"slot_ttl"`
	MaxSlots        int           `mapstructure:"max_slots"`
}

// AuditConfig Audit log store configuration
type AuditConfig struct {
	Type     string         `mapstructure:"type"` // mysql, mock
	Database DatabaseConfig `mapstructure:"database"`
	Prune    PruneConfig    `mapstructure:"prune"`
}

// PruneConfig Audit retention worker configuration
type PruneConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Retention time.Duration `mapstructure:"retention"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// DatabaseConfig Database Configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	Retry           RetryConfig   `mapstructure:"retry"`
}

// RetryConfig Retry configuration for transient database failures
type RetryConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	InitialDelay       time.Duration `mapstructure:"initial_delay"`
	MaxDelay           time.Duration `mapstructure:"max_delay"`
	BackoffFactor      float64       `mapstructure:"backoff_factor"`
	JitterEnabled      bool          `mapstructure:"jitter_enabled"`
	RetryOnDeadlock    bool          `mapstructure:"retry_on_deadlock"`
	RetryOnLockTimeout bool          `mapstructure:"retry_on_lock_timeout"`
}

// InFlightConfig selects the per-entity action guard.
type InFlightConfig struct {
	Type      string        `mapstructure:"type"` // memory, redis
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

// LogConfig Log Configuration
type LogConfig struct {
	Level    string `mapstructure:"level"`  // debug, info, warn, error
	Format   string `mapstructure:"format"` // json, console
	Output   string `mapstructure:"output"` // stdout, file
	FilePath string `mapstructure:"file_path"`
}

// CORSConfig CORS Configuration
type CORSConfig struct {
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// IsDevelopment Whether it's development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction Whether it's production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load Load Configuration
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DUOADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Use default values when config file doesn't exist
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// maxActionSteps is the longest chain of upstream calls one action performs.
const maxActionSteps = 2

func (c *Config) validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Pages.DefaultPageSize <= 0 || c.Pages.MaxPageSize < c.Pages.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.Pages.DefaultPageSize, c.Pages.MaxPageSize)
	}
	switch c.Audit.Type {
	case "mock", "mysql":
	default:
		return fmt.Errorf("unsupported audit.type %q", c.Audit.Type)
	}
	switch c.InFlight.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported inflight.type %q", c.InFlight.Type)
	}
	// 最长的操作有两个上游调用，锁不能在它们完成前过期
	if c.InFlight.LockTTL > 0 && c.Upstream.Timeout > 0 && c.InFlight.LockTTL <= maxActionSteps*c.Upstream.Timeout {
		return fmt.Errorf("inflight.lock_ttl %v must exceed %d x upstream.timeout (%v)",
			c.InFlight.LockTTL, maxActionSteps, c.Upstream.Timeout)
	}
	return nil
}

// setDefaults Set default configuration
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "duoadmin")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.env", "development")

	// Server
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rate", 50)
	v.SetDefault("server.rate_limit.burst", 100)
	v.SetDefault("server.rate_limit.max_clients", 10000)
	v.SetDefault("server.rate_limit.idle_ttl", "10m")

	// Upstream marketplace API
	v.SetDefault("upstream.base_url", "http://localhost:8080/api")
	v.SetDefault("upstream.asset_base_url", "http://localhost:8080")
	v.SetDefault("upstream.default_avatar", "/images/avata1.jpg")
	v.SetDefault("upstream.timeout", "15s")

	// Pages
	v.SetDefault("pages.default_page_size", 10)
	v.SetDefault("pages.max_page_size", 100)
	v.SetDefault("pages.slot_ttl", "30m")
	v.SetDefault("pages.max_slots", 1024)

	// Audit
	v.SetDefault("audit.type", "mock")
	v.SetDefault("audit.database.host", "localhost")
	v.SetDefault("audit.database.port", "3306")
	v.SetDefault("audit.database.username", "root")
	v.SetDefault("audit.database.password", "")
	v.SetDefault("audit.database.database", "duoadmin")
	v.SetDefault("audit.database.max_open_conns", 10)
	v.SetDefault("audit.database.max_idle_conns", 5)
	v.SetDefault("audit.database.conn_max_lifetime", "5m")
	v.SetDefault("audit.database.log_level", "warn")
	v.SetDefault("audit.database.retry.enabled", true)
	v.SetDefault("audit.database.retry.max_attempts", 3)
	v.SetDefault("audit.database.retry.initial_delay", "100ms")
	v.SetDefault("audit.database.retry.max_delay", "2s")
	v.SetDefault("audit.database.retry.backoff_factor", 2.0)
	v.SetDefault("audit.database.retry.jitter_enabled", true)
	v.SetDefault("audit.database.retry.retry_on_deadlock", true)
	v.SetDefault("audit.database.retry.retry_on_lock_timeout", true)
	v.SetDefault("audit.prune.enabled", false)
	v.SetDefault("audit.prune.retention", "2160h")
	v.SetDefault("audit.prune.interval", "1h")
	v.SetDefault("audit.prune.batch_size", 500)

	// In-flight guard
	v.SetDefault("inflight.type", "memory")
	v.SetDefault("inflight.redis_addr", "localhost:6379")
	v.SetDefault("inflight.redis_db", 0)
	v.SetDefault("inflight.lock_ttl", "1m")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "logs/duoadmin.log")

	// CORS
	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", "12h")
}
