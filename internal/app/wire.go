package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/kzharov/pitchsignal/internal/blob/s3"
	"github.com/kzharov/pitchsignal/internal/cache/redis"
	"github.com/kzharov/pitchsignal/internal/config"
	"github.com/kzharov/pitchsignal/internal/domain"
	"github.com/kzharov/pitchsignal/internal/feed"
	"github.com/kzharov/pitchsignal/internal/notify"
	"github.com/kzharov/pitchsignal/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	PickStore       domain.PickStore
	SettlementStore domain.SettlementStore
	StratCfgStore   domain.StrategyConfigStore

	// Feed. Stats and Odds are wrapped in short-TTL Redis caches.
	Feed   domain.MatchFeed
	Stats  domain.StatsSource
	Odds   domain.OddsSource
	Stream *feed.Stream // nil when no websocket URL is configured

	// Blob storage
	Archiver *s3blob.Archiver // nil when archiving is disabled

	// Notifications
	Notifier *notify.Notifier
}

// needsFeed returns true for modes that talk to the match-data provider.
func needsFeed(mode string) bool {
	return mode != "report"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PickStore = postgres.NewPickStore(pool)
	deps.SettlementStore = postgres.NewSettlementStore(pool)
	deps.StratCfgStore = postgres.NewStrategyConfigStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	// --- Feed ---
	if needsFeed(cfg.Mode) {
		client := feed.NewClient(feed.ClientConfig{
			BaseURL: cfg.Feed.BaseURL,
			APIKey:  cfg.Feed.APIKey,
			Timeout: cfg.Feed.Timeout.Duration,
		})
		deps.Feed = client
		deps.Stats = feed.NewCachedStats(client, redis.NewStatsCache(redisClient), cfg.Feed.StatsTTL.Duration, logger)
		deps.Odds = feed.NewCachedOdds(client, redis.NewOddsCache(redisClient), cfg.Feed.OddsTTL.Duration, logger)

		if cfg.Feed.WSURL != "" {
			deps.Stream = feed.NewStream(cfg.Feed.WSURL, cfg.Feed.APIKey, logger)
		}
	}

	// --- S3 blob storage ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.PickStore, deps.SettlementStore)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
