// Package config handles configuration for the auth server,
// including defaults, JSON overlay, environment variables and command-line flags.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	StoreAuto   = "auto"
	StoreMemory = "memory"
)

// Config holds runtime settings for the SwapIt auth server.
//
// Fields:
//   - Environment: "production" hides internal error details from clients.
//   - HTTPAddr: bind address for the HTTP endpoint.
//   - StoreMode: "auto" tries Postgres and falls back to memory, "memory" skips the database.
//   - DatabaseDSN: full pgx DSN; when empty one is built from the DB* fields.
//   - DBHost / DBPort / DBUser / DBPassword / DBName / DBSSLMode: connection parts.
//   - DBConnectTimeout / DBQueryTimeout: bounds on bootstrap and per-request database calls.
//   - SessionTTL / SessionCookieName / CookieDomain / CookieSecure: session transport.
//   - LockoutThreshold / LockoutDuration: brute-force policy.
//   - BcryptCost: password hashing work factor.
//   - GoogleClientID / GoogleClientSecret / GoogleRedirectURL / OAuthTimeout: Google sign-in.
//   - RedisAddr / RedisPassword / RedisDB: optional session cache; empty address disables it.
//   - ResetSecret / ResetTokenTTL / ResetURLBase: password reset links.
//   - S3*: optional avatar object storage; empty bucket keeps avatars inline.
//   - MaxAvatarBytes / MaxRequestBytes: upload limits.
//   - AllowedOrigins: CSRF allow-list; empty disables the check.
type Config struct {
	Environment string `env:"ENVIRONMENT"`
	HTTPAddr    string `env:"HTTP_ADDR"`
	StoreMode   string `env:"STORE_MODE"`

	DatabaseDSN      string        `env:"DATABASE_DSN"`
	DBHost           string        `env:"DB_HOST"`
	DBPort           int           `env:"DB_PORT"`
	DBUser           string        `env:"DB_USERNAME"`
	DBPassword       string        `env:"DB_PASSWORD"`
	DBName           string        `env:"DB_NAME"`
	DBSSLMode        string        `env:"DB_SSLMODE"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT"`
	DBQueryTimeout   time.Duration `env:"DB_QUERY_TIMEOUT"`

	SessionTTL        time.Duration `env:"SESSION_TTL"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME"`
	CookieDomain      string        `env:"COOKIE_DOMAIN"`
	CookieSecure      bool          `env:"COOKIE_SECURE"`

	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION"`
	BcryptCost       int           `env:"BCRYPT_COST"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `env:"GOOGLE_REDIRECT_URL"`
	OAuthTimeout       time.Duration `env:"OAUTH_TIMEOUT"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	ResetSecret   string        `env:"RESET_SECRET"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL"`
	ResetURLBase  string        `env:"RESET_URL_BASE"`

	S3RootUser     string `env:"S3_ROOT_USER"`
	S3RootPassword string `env:"S3_ROOT_PASSWORD"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`

	MaxAvatarBytes  int64 `env:"MAX_AVATAR_BYTES"`
	MaxRequestBytes int64 `env:"MAX_REQUEST_BYTES"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets here are placeholders and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.Environment = EnvDevelopment
	c.HTTPAddr = ":8080"
	c.StoreMode = StoreAuto

	c.DBHost = "localhost"
	c.DBPort = 5432
	c.DBUser = "postgres"
	c.DBPassword = "postgres"
	c.DBName = "swapit"
	c.DBSSLMode = "disable"
	c.DBConnectTimeout = 5 * time.Second
	c.DBQueryTimeout = 5 * time.Second

	c.SessionTTL = 24 * time.Hour
	c.SessionCookieName = "swapit_session"

	c.LockoutThreshold = 5
	c.LockoutDuration = 15 * time.Minute
	c.BcryptCost = 10

	c.OAuthTimeout = 10 * time.Second

	c.ResetSecret = "resetSecret"
	c.ResetTokenTTL = 30 * time.Minute
	c.ResetURLBase = "http://localhost:8080/pages/reset-password.html"

	c.S3Region = "us-east-1"

	c.MaxAvatarBytes = 512 * 1024
	c.MaxRequestBytes = 2 << 20
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// IsProduction reports whether client-facing errors must stay generic.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// SecureCookies reports whether the session cookie gets the Secure flag.
func (c *Config) SecureCookies() bool {
	return c.CookieSecure || c.IsProduction()
}

// GoogleEnabled reports whether Google sign-in can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// DSN returns the connection string for the application database.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return c.buildURL(c.DBName)
}

// MaintenanceDSN returns a connection string for the "postgres" maintenance
// database on the same server, used to create the application database.
func (c *Config) MaintenanceDSN() (string, error) {
	if c.DatabaseDSN == "" {
		return c.buildURL("postgres"), nil
	}

	if strings.HasPrefix(c.DatabaseDSN, "postgres://") || strings.HasPrefix(c.DatabaseDSN, "postgresql://") {
		u, err := url.Parse(c.DatabaseDSN)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		u.Path = "/postgres"
		return u.String(), nil
	}

	// keyword/value form: a later key overrides an earlier one
	return c.DatabaseDSN + " dbname=postgres", nil
}

func (c *Config) buildURL(dbName string) string {
	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	q.Set("client_encoding", "UTF8")
	if c.DBConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.DBConnectTimeout.Seconds())))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}
