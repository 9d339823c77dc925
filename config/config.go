// Package config defines strongly-typed runtime configuration for the
// OAuth/OIDC provider and helpers to load values from environment variables.
//
// All durations are read from the environment as integer seconds. Sensible defaults
// are provided for local development; override via environment in production.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all configuration sections for the service.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	OAuth    OAuthConfig    `json:"oauth"`
	Session  SessionConfig  `json:"session"`
	Broker   BrokerConfig   `json:"broker"`
	CORS     CORSConfig     `json:"cors"`
}

// ServerConfig controls HTTP server and runtime behavior.
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Environment  string        `json:"environment"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	URL             string        `json:"-"`
	MaxConns        int32         `json:"max_conns"`
	MinConns        int32         `json:"min_conns"`
	MaxConnLifetime time.Duration `json:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `json:"max_conn_idle_time"`
}

// OAuthConfig configures the provider's own protocol behavior: issuer
// identity, token lifespans, signing keys, and where client frontends for
// login/consent live.
type OAuthConfig struct {
	Issuer                      string        `json:"issuer"`
	FrontendURL                 string        `json:"frontend_url"`
	AccessTokenLifespan         time.Duration `json:"access_token_lifespan"`
	AuthorizationCodeLifespan   time.Duration `json:"authorization_code_lifespan"`
	KeysDir                     string        `json:"keys_dir"`
	RSAPrivateKeyPEM            string        `json:"-"`
	RSAPublicKeyPEM             string        `json:"-"`
	BCryptCost                  int           `json:"bcrypt_cost"`
}

// SessionConfig controls the browser session cookie issued after a broker
// login.
type SessionConfig struct {
	Secret         string        `json:"-"`
	ExpirySeconds  time.Duration `json:"expiry_seconds"`
	CookieSecure   bool          `json:"cookie_secure"`
	CookieDomain   string        `json:"cookie_domain"`
}

// BrokerConfig points at the external identity broker this provider
// delegates authentication to.
type BrokerConfig struct {
	AppID      string `json:"app_id"`
	AppSecret  string `json:"-"`
	JWKSURL    string `json:"jwks_url"`
	Issuer     string `json:"issuer"`
	ProfileURL string `json:"profile_url"`
}

// CORSConfig defines cross-origin resource sharing policy for the
// browser-facing consent and login endpoints.
type CORSConfig struct {
	AllowOrigins     []string `json:"allow_origins"`
	AllowMethods     []string `json:"allow_methods"`
	AllowHeaders     []string `json:"allow_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// Load reads configuration from environment variables with defaults suitable
// for local development. The database, OAuth, session, broker, and CORS
// variables are prefixed OAUTH_, matching the predecessor service this
// provider replaces; the server variables (SERVER_*, ENVIRONMENT) are not.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("OAUTH_DATABASE_URL", "postgres://localhost:5432/oauth_provider?sslmode=disable"),
			MaxConns:        int32(getEnvAsInt("OAUTH_DATABASE_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("OAUTH_DATABASE_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvAsDuration("OAUTH_DATABASE_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvAsDuration("OAUTH_DATABASE_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		OAuth: OAuthConfig{
			Issuer:                    getEnv("OAUTH_ISSUER", "http://localhost:8080"),
			FrontendURL:               getEnv("OAUTH_FRONTEND_URL", "http://localhost:3000"),
			AccessTokenLifespan:       getEnvAsDuration("OAUTH_TOKEN_EXPIRY_SECONDS_DURATION", time.Hour),
			AuthorizationCodeLifespan: getEnvAsDuration("OAUTH_AUTHORIZATION_CODE_EXPIRY_SECONDS_DURATION", 10*time.Minute),
			KeysDir:                   getEnv("OAUTH_KEYS_DIR", "keys"),
			RSAPrivateKeyPEM:          getEnv("OAUTH_RSA_PRIVATE_KEY", ""),
			RSAPublicKeyPEM:           getEnv("OAUTH_RSA_PUBLIC_KEY", ""),
			BCryptCost:                getEnvAsInt("OAUTH_BCRYPT_COST", 12),
		},
		Session: SessionConfig{
			Secret:        getEnv("OAUTH_SESSION_SECRET", "change-me-in-production"),
			ExpirySeconds: getEnvAsDuration("OAUTH_SESSION_EXPIRY_SECONDS_DURATION", 7*24*time.Hour),
			CookieSecure:  getEnvAsBool("OAUTH_SESSION_COOKIE_SECURE", true),
			CookieDomain:  getEnv("OAUTH_SESSION_COOKIE_DOMAIN", ""),
		},
		Broker: BrokerConfig{
			AppID:      getEnv("OAUTH_BROKER_APP_ID", ""),
			AppSecret:  getEnv("OAUTH_BROKER_APP_SECRET", ""),
			JWKSURL:    getEnv("OAUTH_BROKER_JWKS_URL", ""),
			Issuer:     getEnv("OAUTH_BROKER_ISSUER", ""),
			ProfileURL: getEnv("OAUTH_BROKER_PROFILE_URL", ""),
		},
		CORS: CORSConfig{
			AllowOrigins:     getEnvAsSlice("OAUTH_CORS_ORIGINS", []string{"http://localhost:3000"}),
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           86400,
		},
	}
}

// Helper functions to get environment variables with type-safe fallbacks.

// getEnv returns the string value of key or defaultValue if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the integer value for key or defaultValue if unset or invalid.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvAsBool returns the boolean value for key or defaultValue if unset or invalid.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		log.Printf("Invalid boolean value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvAsDuration returns the duration given in integer seconds by key, or
// defaultValue if unset or invalid. A trailing "_DURATION" is stripped from
// key first, so keys carrying "_SECONDS_DURATION" are read from the matching
// "_SECONDS" env var to keep the external interface (seconds) the same as
// the predecessor service while using time.Duration internally.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	secondsKey := strings.TrimSuffix(key, "_DURATION")
	if value := os.Getenv(secondsKey); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
		log.Printf("Invalid integer seconds value for %s: %s, using default: %s", secondsKey, value, defaultValue)
	}
	return defaultValue
}

// getEnvAsSlice returns a comma-separated env var split into a slice, or
// defaultValue if unset.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
