package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/swaphubteam/SwapIt/internal/flagx"
	"github.com/swaphubteam/SwapIt/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	Environment string `json:"environment"`
	HTTPAddr    string `json:"http_addr"`
	StoreMode   string `json:"store_mode"`

	DatabaseDSN      string         `json:"database_dsn"`
	DBHost           string         `json:"db_host"`
	DBPort           int            `json:"db_port"`
	DBUser           string         `json:"db_username"`
	DBPassword       string         `json:"db_password"`
	DBName           string         `json:"db_name"`
	DBSSLMode        string         `json:"db_sslmode"`
	DBConnectTimeout timex.Duration `json:"db_connect_timeout"`
	DBQueryTimeout   timex.Duration `json:"db_query_timeout"`

	SessionTTL        timex.Duration `json:"session_ttl"`
	SessionCookieName string         `json:"session_cookie_name"`
	CookieDomain      string         `json:"cookie_domain"`
	CookieSecure      bool           `json:"cookie_secure"`

	LockoutThreshold int            `json:"lockout_threshold"`
	LockoutDuration  timex.Duration `json:"lockout_duration"`
	BcryptCost       int            `json:"bcrypt_cost"`

	GoogleClientID     string         `json:"google_client_id"`
	GoogleClientSecret string         `json:"google_client_secret"`
	GoogleRedirectURL  string         `json:"google_redirect_url"`
	OAuthTimeout       timex.Duration `json:"oauth_timeout"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	ResetSecret   string         `json:"reset_secret"`
	ResetTokenTTL timex.Duration `json:"reset_token_ttl"`
	ResetURLBase  string         `json:"reset_url_base"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3PublicURL    string `json:"s3_public_url"`

	MaxAvatarBytes  int64 `json:"max_avatar_bytes"`
	MaxRequestBytes int64 `json:"max_request_bytes"`

	AllowedOrigins []string `json:"allowed_origins"`
}

// parseJson loads the file named by -c/-config (or $SWAPIT_CONFIG) and copies
// every field that is present and non-zero onto config. No path means no-op.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.Environment, c.Environment)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.StoreMode, c.StoreMode)

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DBHost, c.DBHost)
	setInt(&config.DBPort, c.DBPort)
	setString(&config.DBUser, c.DBUser)
	setString(&config.DBPassword, c.DBPassword)
	setString(&config.DBName, c.DBName)
	setString(&config.DBSSLMode, c.DBSSLMode)
	setDuration(&config.DBConnectTimeout, c.DBConnectTimeout)
	setDuration(&config.DBQueryTimeout, c.DBQueryTimeout)

	setDuration(&config.SessionTTL, c.SessionTTL)
	setString(&config.SessionCookieName, c.SessionCookieName)
	setString(&config.CookieDomain, c.CookieDomain)
	config.CookieSecure = config.CookieSecure || c.CookieSecure

	setInt(&config.LockoutThreshold, c.LockoutThreshold)
	setDuration(&config.LockoutDuration, c.LockoutDuration)
	setInt(&config.BcryptCost, c.BcryptCost)

	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.GoogleRedirectURL, c.GoogleRedirectURL)
	setDuration(&config.OAuthTimeout, c.OAuthTimeout)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)

	setString(&config.ResetSecret, c.ResetSecret)
	setDuration(&config.ResetTokenTTL, c.ResetTokenTTL)
	setString(&config.ResetURLBase, c.ResetURLBase)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)

	if c.MaxAvatarBytes > 0 {
		config.MaxAvatarBytes = c.MaxAvatarBytes
	}
	if c.MaxRequestBytes > 0 {
		config.MaxRequestBytes = c.MaxRequestBytes
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
