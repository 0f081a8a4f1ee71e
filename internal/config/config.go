// Package config defines the top-level configuration for the pick engine and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PITCHSIGNAL_* environment variables.
type Config struct {
	Feed     FeedConfig     `toml:"feed"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Scan     ScanConfig     `toml:"scan"`
	Settle   SettleConfig   `toml:"settle"`
	Staking  StakingConfig  `toml:"staking"`
	Emission EmissionConfig `toml:"emission"`
	Risk     RiskConfig     `toml:"risk"`
	Archive  ArchiveConfig  `toml:"archive"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// FeedConfig holds the upstream match-data provider parameters.
type FeedConfig struct {
	BaseURL  string   `toml:"base_url"`
	WSURL    string   `toml:"ws_url"`
	APIKey   string   `toml:"api_key"`
	Timeout  duration `toml:"timeout"`
	StatsTTL duration `toml:"stats_ttl"`
	OddsTTL  duration `toml:"odds_ttl"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ScanConfig holds the live-match scan loop parameters.
type ScanConfig struct {
	Interval duration `toml:"interval"`
}

// SettleConfig holds the settlement loop parameters.
type SettleConfig struct {
	Interval duration `toml:"interval"`
	// AssumedPrice is the decimal price used to grade picks that never had a
	// live quote, taken or closing.
	AssumedPrice float64 `toml:"assumed_price"`
}

// StakingConfig holds the probability-to-stake parameters.
type StakingConfig struct {
	KellyMultiplier float64 `toml:"kelly_multiplier"`
	StakeFloor      float64 `toml:"stake_floor"`
	StakeCeiling    float64 `toml:"stake_ceiling"`
}

// EmissionConfig holds the dedup and cooldown parameters.
type EmissionConfig struct {
	Cooldown      duration `toml:"cooldown"`
	MinEdgeDelta  float64  `toml:"min_edge_delta"`
	MinPriceDelta float64  `toml:"min_price_delta"`
	MinEdge       float64  `toml:"min_edge"`
}

// RiskConfig holds the daily throttle parameters.
type RiskConfig struct {
	DailyLossFloor       float64 `toml:"daily_loss_floor"`
	MaxConsecutiveLosses int     `toml:"max_consecutive_losses"`
	ReducedScale         float64 `toml:"reduced_scale"`
}

// ArchiveConfig controls the cold-storage upload of settled days.
type ArchiveConfig struct {
	Enabled bool `toml:"enabled"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			Timeout:  duration{10 * time.Second},
			StatsTTL: duration{30 * time.Second},
			OddsTTL:  duration{15 * time.Second},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "pitchsignal",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "pitchsignal-data",
			ForcePathStyle: true,
		},
		Scan: ScanConfig{
			Interval: duration{30 * time.Second},
		},
		Settle: SettleConfig{
			Interval:     duration{2 * time.Minute},
			AssumedPrice: 1.90,
		},
		Staking: StakingConfig{
			KellyMultiplier: 0.25,
			StakeFloor:      0.25,
			StakeCeiling:    3.0,
		},
		Emission: EmissionConfig{
			Cooldown:      duration{10 * time.Minute},
			MinEdgeDelta:  0.02,
			MinPriceDelta: 0.10,
			MinEdge:       0.02,
		},
		Risk: RiskConfig{
			DailyLossFloor:       -5.0,
			MaxConsecutiveLosses: 3,
			ReducedScale:         0.5,
		},
		Archive: ArchiveConfig{
			Enabled: false,
		},
		Notify: NotifyConfig{
			Events: []string{"pick", "settlement", "risk_pause"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":   true,
	"settle": true,
	"report": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, settle, report, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Feed is required for every mode that touches live matches.
	needsFeed := c.Mode != "report"
	if needsFeed && c.Feed.BaseURL == "" {
		errs = append(errs, "feed: base_url must not be empty for mode "+c.Mode)
	}
	if c.Feed.Timeout.Duration < 0 {
		errs = append(errs, "feed: timeout must not be negative")
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 is only checked when archiving is on.
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
	}

	// Loop intervals
	if c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be > 0")
	}
	if c.Settle.Interval.Duration <= 0 {
		errs = append(errs, "settle: interval must be > 0")
	}
	if c.Settle.AssumedPrice <= 1 {
		errs = append(errs, fmt.Sprintf("settle: assumed_price must be > 1, got %g", c.Settle.AssumedPrice))
	}

	// Staking
	if c.Staking.KellyMultiplier <= 0 || c.Staking.KellyMultiplier > 1 {
		errs = append(errs, fmt.Sprintf("staking: kelly_multiplier must be in (0, 1], got %g", c.Staking.KellyMultiplier))
	}
	if c.Staking.StakeFloor < 0 {
		errs = append(errs, "staking: stake_floor must be >= 0")
	}
	if c.Staking.StakeCeiling <= c.Staking.StakeFloor {
		errs = append(errs, "staking: stake_ceiling must exceed stake_floor")
	}

	// Emission
	if c.Emission.Cooldown.Duration <= 0 {
		errs = append(errs, "emission: cooldown must be > 0")
	}
	if c.Emission.MinEdgeDelta < 0 || c.Emission.MinPriceDelta < 0 || c.Emission.MinEdge < 0 {
		errs = append(errs, "emission: deltas and min_edge must not be negative")
	}

	// Risk
	if c.Risk.DailyLossFloor >= 0 {
		errs = append(errs, fmt.Sprintf("risk: daily_loss_floor must be negative, got %g", c.Risk.DailyLossFloor))
	}
	if c.Risk.MaxConsecutiveLosses < 1 {
		errs = append(errs, "risk: max_consecutive_losses must be >= 1")
	}
	if c.Risk.ReducedScale <= 0 || c.Risk.ReducedScale > 1 {
		errs = append(errs, fmt.Sprintf("risk: reduced_scale must be in (0, 1], got %g", c.Risk.ReducedScale))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
