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
// built-in defaults, applies BASKETBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
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

// applyEnvOverrides reads well-known BASKETBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "BASKETBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.FunderAddress, "BASKETBOT_WALLET_FUNDER_ADDRESS")
	setStr(&cfg.Wallet.EncryptedKeyPath, "BASKETBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "BASKETBOT_WALLET_KEY_PASSWORD")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "BASKETBOT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "BASKETBOT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "BASKETBOT_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.ChainID, "BASKETBOT_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "BASKETBOT_POLYMARKET_SIGNATURE_TYPE")

	// ── Scanner ──
	setDuration(&cfg.Scanner.PollInterval, "BASKETBOT_SCANNER_POLL_INTERVAL")
	setInt(&cfg.Scanner.PageSize, "BASKETBOT_SCANNER_PAGE_SIZE")
	setInt(&cfg.Scanner.MaxPages, "BASKETBOT_SCANNER_MAX_PAGES")
	setStringSlice(&cfg.Scanner.Categories, "BASKETBOT_SCANNER_CATEGORIES")
	setFloat64(&cfg.Scanner.MinLiquidityUSD, "BASKETBOT_SCANNER_MIN_LIQUIDITY_USD")

	// ── Edge ──
	setFloat64(&cfg.Edge.Buffer, "BASKETBOT_EDGE_BUFFER")
	setFloat64(&cfg.Edge.MinEdge, "BASKETBOT_EDGE_MIN_EDGE")
	setFloat64(&cfg.Edge.TargetPayoutUSD, "BASKETBOT_EDGE_TARGET_PAYOUT_USD")
	setFloat64(&cfg.Edge.MinLegNotionalUSD, "BASKETBOT_EDGE_MIN_LEG_NOTIONAL_USD")

	// ── Execution ──
	setBool(&cfg.Execution.DryRun, "BASKETBOT_EXECUTION_DRY_RUN")
	setBool(&cfg.Execution.PriceGuardEnabled, "BASKETBOT_EXECUTION_PRICE_GUARD_ENABLED")
	setFloat64(&cfg.Execution.PriceGuardTolerance, "BASKETBOT_EXECUTION_PRICE_GUARD_TOLERANCE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BASKETBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BASKETBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BASKETBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BASKETBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BASKETBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BASKETBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BASKETBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BASKETBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BASKETBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BASKETBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BASKETBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BASKETBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BASKETBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BASKETBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BASKETBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BASKETBOT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.CacheTTL, "BASKETBOT_REDIS_CACHE_TTL")
	setInt(&cfg.Redis.RateLimit, "BASKETBOT_REDIS_RATE_LIMIT")
	setDuration(&cfg.Redis.RateWindow, "BASKETBOT_REDIS_RATE_WINDOW")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "BASKETBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BASKETBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "BASKETBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BASKETBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BASKETBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BASKETBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BASKETBOT_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.FlushInterval, "BASKETBOT_S3_FLUSH_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BASKETBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BASKETBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BASKETBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BASKETBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BASKETBOT_MODE")
	setStr(&cfg.LogLevel, "BASKETBOT_LOG_LEVEL")
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
