package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	BaseURL         string        // public URL of this instance (ex: https://marks.domain.ext)
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Bookmark store. DatabaseURL selects the driver: "file:..." paths use
	// the embedded sqlite driver, "libsql://"/"wss://" URLs the remote one.
	DatabaseURL       string // required
	DatabaseAuthToken string // optional, remote libsql only

	// Session provider (Google OAuth + JWT cookie)
	GoogleClientID     string        // required
	GoogleClientSecret string        // required
	OAuthRedirectURL   string        // defaults to BaseURL + /auth/callback
	JWTSecret          string        // required
	SessionTTL         time.Duration // ex: 24h
	SecureCookies      bool          // defaults to true when BaseURL is https

	// Optional YAML seed file imported for a fixed owner at startup
	SeedFile           string
	SeedOwner          string        // owner id the seed bookmarks belong to
	SeedReloadInterval time.Duration // ex: 24h

	// Optional Redis event bridge (cross-instance change propagation).
	// Empty RedisAddr keeps event fan-out in-process.
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict infra endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	// Rate limit on the OAuth entry points
	AuthRateBurst  int
	AuthRatePerMin int
}

// Load reads configuration from the environment (and a local .env file
// when present). Missing required variables panic: a bookmark server with
// no store or no OAuth credentials cannot degrade into anything useful.
func Load() *Config {
	_ = godotenv.Load() // .env is optional, prod uses real env vars

	cfg := &Config{
		ListenPort:      getenv("SMARTMARK_LISTEN_PORT", ":8080"),
		BaseURL:         getenv("SMARTMARK_BASE_URL", "http://localhost:8080"),
		ShutdownTimeout: mustDuration("SMARTMARK_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("SMARTMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SMARTMARK_PRETTY_LOG", true),

		DatabaseURL:       requireEnv("SMARTMARK_DATABASE_URL"),
		DatabaseAuthToken: getenv("SMARTMARK_DATABASE_AUTH_TOKEN", ""),

		GoogleClientID:     requireEnv("SMARTMARK_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: requireEnv("SMARTMARK_GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:   getenv("SMARTMARK_OAUTH_REDIRECT_URL", ""),
		JWTSecret:          requireEnv("SMARTMARK_JWT_SECRET"),
		SessionTTL:         mustDuration("SMARTMARK_SESSION_TTL", 24*time.Hour),

		SeedFile:           getenv("SMARTMARK_SEED_FILE", ""),
		SeedOwner:          getenv("SMARTMARK_SEED_OWNER", ""),
		SeedReloadInterval: mustDuration("SMARTMARK_SEED_RELOAD_INTERVAL", 24*time.Hour),

		RedisAddr:           getenv("SMARTMARK_REDIS_ADDR", ""),
		RedisUser:           getenv("SMARTMARK_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("SMARTMARK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SMARTMARK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		AllowedHosts: splitAndTrim(getenv("SMARTMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("SMARTMARK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SMARTMARK_TRUST_PROXY", false),

		AuthRateBurst:  getenvInt("SMARTMARK_AUTH_RATE_BURST", 10),
		AuthRatePerMin: getenvInt("SMARTMARK_AUTH_RATE_PER_MIN", 30),
	}

	if cfg.OAuthRedirectURL == "" {
		cfg.OAuthRedirectURL = strings.TrimRight(cfg.BaseURL, "/") + "/auth/callback"
	}
	cfg.SecureCookies = mustBool("SMARTMARK_SECURE_COOKIES",
		strings.HasPrefix(cfg.BaseURL, "https://"))

	if cfg.SeedFile != "" && cfg.SeedOwner == "" {
		panic("FATAL: SMARTMARK_SEED_OWNER is required when SMARTMARK_SEED_FILE is set")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.GoogleClientSecret = "***REDACTED***"
		cfgCopy.JWTSecret = "***REDACTED***"
		cfgCopy.DatabaseAuthToken = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
