// Package config defines the top-level configuration for the basket bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BASKETBOT_* environment variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Edge       EdgeConfig       `toml:"edge"`
	Execution  ExecutionConfig  `toml:"execution"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig holds Ethereum wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	FunderAddress    string `toml:"funder_address"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// PolymarketConfig holds Polymarket API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost      string `toml:"clob_host"`
	GammaHost     string `toml:"gamma_host"`
	WsHost        string `toml:"ws_host"`
	ChainID       int    `toml:"chain_id"`
	SignatureType int    `toml:"signature_type"`
}

// ScannerConfig holds market discovery parameters.
type ScannerConfig struct {
	PollInterval    duration `toml:"poll_interval"`
	PageSize        int      `toml:"page_size"`
	MaxPages        int      `toml:"max_pages"`
	Categories      []string `toml:"categories"`
	MinLiquidityUSD float64  `toml:"min_liquidity_usd"`
}

// EdgeConfig holds the arbitrage qualification thresholds and sizing.
// Buffer and MinEdge are fractions of the guaranteed 1-unit payout.
type EdgeConfig struct {
	Buffer            float64 `toml:"buffer"`
	MinEdge           float64 `toml:"min_edge"`
	TargetPayoutUSD   float64 `toml:"target_payout_usd"`
	MinLegNotionalUSD float64 `toml:"min_leg_notional_usd"`
}

// ExecutionConfig holds order submission parameters.
type ExecutionConfig struct {
	DryRun              bool    `toml:"dry_run"`
	PriceGuardEnabled   bool    `toml:"price_guard_enabled"`
	PriceGuardTolerance float64 `toml:"price_guard_tolerance"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	CacheTTL   duration `toml:"cache_ttl"`
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	FlushInterval  duration `toml:"flush_interval"`
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
		Polymarket: PolymarketConfig{
			ClobHost:      "https://clob.polymarket.com",
			GammaHost:     "https://gamma-api.polymarket.com",
			WsHost:        "wss://ws-subscriptions-clob.polymarket.com",
			ChainID:       137,
			SignatureType: 2, // 0 = EOA, 1 = proxy, 2 = Gnosis Safe
		},
		Scanner: ScannerConfig{
			PollInterval:    duration{30 * time.Second},
			PageSize:        100,
			MaxPages:        10,
			Categories:      []string{"sports", "crypto", "politics"},
			MinLiquidityUSD: 5000,
		},
		Edge: EdgeConfig{
			Buffer:            0.03,
			MinEdge:           0.01,
			TargetPayoutUSD:   10.0,
			MinLegNotionalUSD: 1.0,
		},
		Execution: ExecutionConfig{
			DryRun:              true,
			PriceGuardEnabled:   false,
			PriceGuardTolerance: 0.005,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
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
			TLSEnabled: false,
			CacheTTL:   duration{5 * time.Minute},
			RateLimit:  10,
			RateWindow: duration{time.Second},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "basketbot-data",
			UseSSL:         false,
			ForcePathStyle: true,
			FlushInterval:  duration{5 * time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"arb_detected", "basket_executed", "leg_rejected", "cycle_error"},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true,
	"trade": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validCategories enumerates the market categories the normalizer accepts.
var validCategories = map[string]bool{
	"sports":   true,
	"crypto":   true,
	"politics": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, trade)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet: a credential source is required for live trading only.
	if c.Mode == "trade" && !c.Execution.DryRun {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for live trading")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
	}

	// Polymarket endpoints
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	if c.Polymarket.SignatureType < 0 || c.Polymarket.SignatureType > 2 {
		errs = append(errs, fmt.Sprintf("polymarket: signature_type must be 0 (EOA), 1 (proxy), or 2 (Gnosis Safe), got %d", c.Polymarket.SignatureType))
	}

	// Scanner
	if c.Scanner.PollInterval.Duration <= 0 {
		errs = append(errs, "scanner: poll_interval must be positive")
	}
	if c.Scanner.PageSize < 1 || c.Scanner.PageSize > 500 {
		errs = append(errs, fmt.Sprintf("scanner: page_size must be 1-500, got %d", c.Scanner.PageSize))
	}
	if c.Scanner.MaxPages < 1 {
		errs = append(errs, "scanner: max_pages must be >= 1")
	}
	if len(c.Scanner.Categories) == 0 {
		errs = append(errs, "scanner: at least one category is required")
	}
	for _, cat := range c.Scanner.Categories {
		if !validCategories[strings.ToLower(cat)] {
			errs = append(errs, fmt.Sprintf("scanner: unknown category %q (valid: sports, crypto, politics)", cat))
		}
	}
	if c.Scanner.MinLiquidityUSD < 0 {
		errs = append(errs, "scanner: min_liquidity_usd must be >= 0")
	}

	// Edge
	if c.Edge.Buffer < 0 || c.Edge.Buffer >= 1 {
		errs = append(errs, fmt.Sprintf("edge: buffer must be in [0,1), got %g", c.Edge.Buffer))
	}
	if c.Edge.MinEdge <= 0 || c.Edge.MinEdge >= 1 {
		errs = append(errs, fmt.Sprintf("edge: min_edge must be in (0,1), got %g", c.Edge.MinEdge))
	}
	if c.Edge.Buffer+c.Edge.MinEdge >= 1 {
		errs = append(errs, "edge: buffer + min_edge must be < 1")
	}
	if c.Edge.TargetPayoutUSD <= 0 {
		errs = append(errs, "edge: target_payout_usd must be > 0")
	}
	if c.Edge.MinLegNotionalUSD < 0 {
		errs = append(errs, "edge: min_leg_notional_usd must be >= 0")
	}

	// Execution
	if c.Execution.PriceGuardEnabled && c.Execution.PriceGuardTolerance <= 0 {
		errs = append(errs, "execution: price_guard_tolerance must be > 0 when the price guard is enabled")
	}

	// Postgres is only wired in trade mode.
	if c.Mode == "trade" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.RateLimit < 1 {
		errs = append(errs, "redis: rate_limit must be >= 1")
	}
	if c.Redis.RateWindow.Duration <= 0 {
		errs = append(errs, "redis: rate_window must be positive")
	}

	// S3 is only wired in trade mode.
	if c.Mode == "trade" {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
