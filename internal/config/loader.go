package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PITCHSIGNAL_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PITCHSIGNAL_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Feed ──
	setStr(&cfg.Feed.BaseURL, "PITCHSIGNAL_FEED_BASE_URL")
	setStr(&cfg.Feed.WSURL, "PITCHSIGNAL_FEED_WS_URL")
	setStr(&cfg.Feed.APIKey, "PITCHSIGNAL_FEED_API_KEY")
	setDuration(&cfg.Feed.Timeout, "PITCHSIGNAL_FEED_TIMEOUT")
	setDuration(&cfg.Feed.StatsTTL, "PITCHSIGNAL_FEED_STATS_TTL")
	setDuration(&cfg.Feed.OddsTTL, "PITCHSIGNAL_FEED_ODDS_TTL")

	// ── Database ──
	setStr(&cfg.Database.DSN, "PITCHSIGNAL_DATABASE_DSN")
	setStr(&cfg.Database.Host, "PITCHSIGNAL_DATABASE_HOST")
	setInt(&cfg.Database.Port, "PITCHSIGNAL_DATABASE_PORT")
	setStr(&cfg.Database.Database, "PITCHSIGNAL_DATABASE_NAME")
	setStr(&cfg.Database.User, "PITCHSIGNAL_DATABASE_USER")
	setStr(&cfg.Database.Password, "PITCHSIGNAL_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "PITCHSIGNAL_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "PITCHSIGNAL_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "PITCHSIGNAL_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "PITCHSIGNAL_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PITCHSIGNAL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PITCHSIGNAL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PITCHSIGNAL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PITCHSIGNAL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PITCHSIGNAL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PITCHSIGNAL_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "PITCHSIGNAL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PITCHSIGNAL_S3_REGION")
	setStr(&cfg.S3.Bucket, "PITCHSIGNAL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PITCHSIGNAL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PITCHSIGNAL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PITCHSIGNAL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PITCHSIGNAL_S3_FORCE_PATH_STYLE")

	// ── Loops ──
	setDuration(&cfg.Scan.Interval, "PITCHSIGNAL_SCAN_INTERVAL")
	setDuration(&cfg.Settle.Interval, "PITCHSIGNAL_SETTLE_INTERVAL")
	setFloat64(&cfg.Settle.AssumedPrice, "PITCHSIGNAL_SETTLE_ASSUMED_PRICE")

	// ── Staking ──
	setFloat64(&cfg.Staking.KellyMultiplier, "PITCHSIGNAL_STAKING_KELLY_MULTIPLIER")
	setFloat64(&cfg.Staking.StakeFloor, "PITCHSIGNAL_STAKING_STAKE_FLOOR")
	setFloat64(&cfg.Staking.StakeCeiling, "PITCHSIGNAL_STAKING_STAKE_CEILING")

	// ── Emission ──
	setDuration(&cfg.Emission.Cooldown, "PITCHSIGNAL_EMISSION_COOLDOWN")
	setFloat64(&cfg.Emission.MinEdgeDelta, "PITCHSIGNAL_EMISSION_MIN_EDGE_DELTA")
	setFloat64(&cfg.Emission.MinPriceDelta, "PITCHSIGNAL_EMISSION_MIN_PRICE_DELTA")
	setFloat64(&cfg.Emission.MinEdge, "PITCHSIGNAL_EMISSION_MIN_EDGE")

	// ── Risk ──
	setFloat64(&cfg.Risk.DailyLossFloor, "PITCHSIGNAL_RISK_DAILY_LOSS_FLOOR")
	setInt(&cfg.Risk.MaxConsecutiveLosses, "PITCHSIGNAL_RISK_MAX_CONSECUTIVE_LOSSES")
	setFloat64(&cfg.Risk.ReducedScale, "PITCHSIGNAL_RISK_REDUCED_SCALE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "PITCHSIGNAL_ARCHIVE_ENABLED")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PITCHSIGNAL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PITCHSIGNAL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PITCHSIGNAL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PITCHSIGNAL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PITCHSIGNAL_MODE")
	setStr(&cfg.LogLevel, "PITCHSIGNAL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
