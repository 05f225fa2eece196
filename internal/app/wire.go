package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/basketbot/internal/blob/s3"
	"github.com/alanyoungcy/basketbot/internal/cache/redis"
	"github.com/alanyoungcy/basketbot/internal/config"
	"github.com/alanyoungcy/basketbot/internal/crypto"
	"github.com/alanyoungcy/basketbot/internal/domain"
	"github.com/alanyoungcy/basketbot/internal/executor"
	"github.com/alanyoungcy/basketbot/internal/notify"
	"github.com/alanyoungcy/basketbot/internal/platform/polymarket"
	"github.com/alanyoungcy/basketbot/internal/store/postgres"
)

// Dependencies bundles everything the modes need. Wire constructs it; the
// returned cleanup function tears it down.
type Dependencies struct {
	Gamma       *polymarket.GammaClient
	Sink        executor.OrderSink
	Guard       *polymarket.BookProber
	Store       domain.TradeRecordStore
	BasketCache domain.BasketCache
	RateLimiter domain.RateLimiter
	Archiver    *s3blob.SessionArchiver
	Notifier    *notify.Notifier
}

// Wire constructs concrete implementations from the configuration. Redis and
// the Gamma client are always wired; Postgres, S3, and the live CLOB sink
// only in trade mode. Scan mode always submits through the dry-run sink.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Gamma: polymarket.NewGammaClient(cfg.Polymarket.GammaHost),
	}

	// Redis: shared rate limiter and basket cache.
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

	deps.RateLimiter = redis.NewRateLimiter(redisClient, cfg.Redis.RateLimit, cfg.Redis.RateWindow.Duration)
	deps.BasketCache = redis.NewBasketCache(redisClient)

	liveTrading := cfg.Mode == "trade" && !cfg.Execution.DryRun

	if cfg.Mode == "trade" {
		// Postgres: durable trade records across runs.
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Store = postgres.NewTradeRecordStore(pgClient.Pool())

		// S3: session trade-log archive.
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
		deps.Archiver = s3blob.NewSessionArchiver(s3blob.NewWriter(s3Client), logger)
	}

	if liveTrading {
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load wallet key: %w", err)
		}

		signer, err := crypto.NewSigner(key, cfg.Polymarket.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: create signer: %w", err)
		}

		clobClient := polymarket.NewClobClient(
			cfg.Polymarket.ClobHost,
			signer,
			&crypto.HMACAuth{},
			cfg.Wallet.FunderAddress,
			cfg.Polymarket.SignatureType,
		)
		if err := clobClient.DeriveAPIKey(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: derive CLOB api key: %w", err)
		}
		deps.Sink = executor.NewClobSink(clobClient, deps.RateLimiter)
	} else {
		deps.Sink = executor.NewDryRunSink()
	}

	if cfg.Execution.PriceGuardEnabled && cfg.Polymarket.WsHost != "" {
		deps.Guard = polymarket.NewBookProber(cfg.Polymarket.WsHost)
	}

	// Notifications.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
