package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string
	Port        int
	Environment string
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
	LogCompress   bool   `toml:"log_compress"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// postgres
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// http
	AllowedOrigins              []string `toml:"allowed_origins"`
	SecureCookies               bool     `toml:"secure_cookies"`
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	// sessions
	SessionTTL Duration `toml:"session_ttl"`
	// users cache
	UserCacheSizeMB        int `toml:"user_cache_size_mb"`
	UserCacheExpireSeconds int `toml:"user_cache_expire_seconds"`
	// notifications
	InboxMaxSize        int `toml:"inbox_max_size"`
	NotificationWorkers int `toml:"notification_workers"`
	NotificationBuffer  int `toml:"notification_buffer"`
}

// Duration reads values like "72h" from the TOML file.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Load reads the TOML file at path and returns the config of the given env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return t.Get(env)
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 50
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 30
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 90
	}
	if c.PostgresMaxConns == 0 {
		c.PostgresMaxConns = 10
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 10
	}
	if c.SessionTTL.Duration == 0 {
		c.SessionTTL.Duration = 72 * time.Hour
	}
	if c.UserCacheSizeMB == 0 {
		c.UserCacheSizeMB = 10
	}
	if c.UserCacheExpireSeconds == 0 {
		c.UserCacheExpireSeconds = 3600
	}
	if c.InboxMaxSize == 0 {
		c.InboxMaxSize = 100
	}
	if c.NotificationWorkers == 0 {
		c.NotificationWorkers = 4
	}
	if c.NotificationBuffer == 0 {
		c.NotificationBuffer = 256
	}
}
