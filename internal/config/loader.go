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
// built-in defaults, applies TRIBE_* environment variable overrides, and
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

// applyEnvOverrides reads well-known TRIBE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setBool(&cfg.Server.Enabled, "TRIBE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "TRIBE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TRIBE_SERVER_CORS_ORIGINS")

	// ── Auth ──
	setStr(&cfg.Auth.JWTSecret, "TRIBE_AUTH_JWT_SECRET")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TRIBE_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "TRIBE_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "TRIBE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TRIBE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TRIBE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TRIBE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TRIBE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TRIBE_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TRIBE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TRIBE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TRIBE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TRIBE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRIBE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRIBE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRIBE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRIBE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRIBE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "TRIBE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRIBE_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRIBE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRIBE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRIBE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRIBE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRIBE_S3_FORCE_PATH_STYLE")

	// ── Webhook ──
	setStr(&cfg.Webhook.Secret, "TRIBE_WEBHOOK_SECRET")
	setInt(&cfg.Webhook.RateLimit, "TRIBE_WEBHOOK_RATE_LIMIT")
	setDuration(&cfg.Webhook.RateWindow, "TRIBE_WEBHOOK_RATE_WINDOW")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "TRIBE_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "TRIBE_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.RetentionDays, "TRIBE_ARCHIVE_RETENTION_DAYS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRIBE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRIBE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRIBE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRIBE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "TRIBE_MODE")
	setStr(&cfg.LogLevel, "TRIBE_LOG_LEVEL")
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
