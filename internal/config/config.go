// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // distroless環境でもAPP_TIMEZONEを解決できるようにする

	"github.com/joho/godotenv"
)

// ErrConfigurationMissing は必須設定が未設定の場合のエラー。
// 署名鍵などの秘密情報にフォールバック値は用意しない。
var ErrConfigurationMissing = errors.New("configuration missing")

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	AuthSecret             string
	SessionMaxAge          time.Duration
	SessionRefreshInterval time.Duration

	// Generic token
	// TokenSecret が空の場合はAUTH_SECRETから別の鍵を導出する。
	TokenSecret string
	TokenTTL    time.Duration

	// Role gate
	LoginPath        string
	UnauthorizedPath string

	// Revocation
	RedisURL string

	// Rate Limit
	RateLimitLogin int // req/min/IP

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string
	Timezone   string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// .env.local が存在する場合は先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はErrConfigurationMissingをラップしたエラーを返す。
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	if cfg.AuthSecret == "" {
		missing = append(missing, "AUTH_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: required environment variables are not set: %v", ErrConfigurationMissing, missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvDuration("SESSION_MAX_AGE", 7*24*time.Hour)
	cfg.SessionRefreshInterval = getEnvDuration("SESSION_REFRESH_INTERVAL", 30*time.Minute)
	cfg.TokenSecret = getEnvString("TOKEN_SECRET", "")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 7*24*time.Hour)
	cfg.LoginPath = getEnvString("LOGIN_PATH", "/auth/login")
	cfg.UnauthorizedPath = getEnvString("UNAUTHORIZED_PATH", "/unauthorized")
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.Timezone = getEnvString("APP_TIMEZONE", "Asia/Bangkok")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive: %v", c.SessionMaxAge)
	}
	if c.SessionRefreshInterval <= 0 || c.SessionRefreshInterval >= c.SessionMaxAge {
		return fmt.Errorf("SESSION_REFRESH_INTERVAL must be positive and shorter than SESSION_MAX_AGE: %v", c.SessionRefreshInterval)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive: %v", c.TokenTTL)
	}
	if !strings.HasPrefix(c.LoginPath, "/") || !strings.HasPrefix(c.UnauthorizedPath, "/") {
		return fmt.Errorf("LOGIN_PATH and UNAUTHORIZED_PATH must be absolute paths")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// SecretPresence は必須の秘密設定が存在するかどうかだけを返す。値は含めない。
func (c *Config) SecretPresence() map[string]bool {
	return map[string]bool{
		"AUTH_SECRET":  c.AuthSecret != "",
		"DATABASE_URL": c.DatabaseURL != "",
		"BASE_URL":     c.BaseURL != "",
	}
}

// loadEnvFile はカレントまたは親ディレクトリの .env.local を読み込む。
// 見つからない場合は何もしない。
func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
