package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

type Config struct {
	BaseURL         string // Required: identity provider API base URL
	ApplicationHref string // Required: tenant application href; also the token issuer claim
	APIKeyID        string // Required: this client's API key id
	APIKeySecret    string // Required: this client's API key secret
	SecretEncoding  string // Optional: secret encoding (plain, base64) (default: plain)

	AccessTTL     time.Duration // Optional: access token lifetime (default: 1h)
	RefreshTTL    time.Duration // Optional: refresh token lifetime (default: 8760h)
	RotateRefresh bool          // Optional: rotate refresh tokens on redemption (default: false)

	NonceStoreMode string // Optional: nonce store driver (memory, sqlite) (default: memory)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./gatehouse.db)

	RedisAddr string        // Optional: redis address for the resource cache; empty disables caching
	CacheTTL  time.Duration // Optional: resource cache TTL (default: 5m)

	GatewayTimeout time.Duration // Optional: provider request timeout (default: 10s)

	CookieAccessName  string // Optional: access session cookie name (default: gh_access)
	CookieRefreshName string // Optional: refresh session cookie name (default: gh_refresh)
	CookieDomain      string // Optional: session cookie domain
	CookiePath        string // Optional: session cookie path (default: /)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Nonce sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		BaseURL:         os.Getenv("IDP_BASE_URL"),
		ApplicationHref: os.Getenv("IDP_APPLICATION_HREF"),
		APIKeyID:        os.Getenv("IDP_API_KEY_ID"),
		APIKeySecret:    os.Getenv("IDP_API_KEY_SECRET"),
		SecretEncoding:  getEnvOrDefault("IDP_API_KEY_SECRET_ENCODING", "plain"),

		AccessTTL:     getEnvDurationOrDefault("IDP_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:    getEnvDurationOrDefault("IDP_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		RotateRefresh: getEnvBoolOrDefault("IDP_ROTATE_REFRESH", false),

		NonceStoreMode: getEnvOrDefault("IDP_NONCE_STORE", "memory"),
		DatabaseFile:   getEnvOrDefault("IDP_DATABASE_FILE", "gatehouse.db"),

		RedisAddr: os.Getenv("IDP_REDIS_ADDR"),
		CacheTTL:  getEnvDurationOrDefault("IDP_CACHE_TTL", 5*time.Minute),

		GatewayTimeout: getEnvDurationOrDefault("IDP_GATEWAY_TIMEOUT", 10*time.Second),

		CookieAccessName:  getEnvOrDefault("IDP_COOKIE_ACCESS_NAME", "gh_access"),
		CookieRefreshName: getEnvOrDefault("IDP_COOKIE_REFRESH_NAME", "gh_refresh"),
		CookieDomain:      os.Getenv("IDP_COOKIE_DOMAIN"),
		CookiePath:        getEnvOrDefault("IDP_COOKIE_PATH", "/"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are taken as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
