// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// ServerAddr is the address the HTTP server listens on (e.g. :5000).
	ServerAddr string `mapstructure:"SERVER_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// TokenPrivateKey is the PEM-encoded private key (RSA or ECDSA) or a path to a key file.
	TokenPrivateKey string `mapstructure:"TOKEN_PRIVATE_KEY"`
	// TokenPublicKey is the PEM-encoded public key or a path to a key file.
	TokenPublicKey string `mapstructure:"TOKEN_PUBLIC_KEY"`
	// AccessTokenExpire is the access token lifetime in seconds (default 900).
	AccessTokenExpire int `mapstructure:"ACCESS_TOKEN_EXPIRE"`
	// RefreshTokenExpire is the refresh token lifetime in seconds (default 43200).
	RefreshTokenExpire int `mapstructure:"REFRESH_TOKEN_EXPIRE"`
	// SessionCookie is the name of the session cookie (default "session").
	SessionCookie string `mapstructure:"SESSION_COOKIE"`
	// SessionDomain is the cookie domain; empty means host-only.
	SessionDomain string `mapstructure:"SESSION_DOMAIN"`
	// SessionExpireDays is the server-side session lifetime in days (default 30).
	SessionExpireDays int `mapstructure:"SESSION_EXPIRE_DAYS"`
	// HashRounds is the PBKDF2 iteration count (minimum 10000).
	HashRounds int `mapstructure:"HASH_ROUNDS"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDR", ":5000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TOKEN_PRIVATE_KEY", "")
	v.SetDefault("TOKEN_PUBLIC_KEY", "")
	v.SetDefault("ACCESS_TOKEN_EXPIRE", 900)
	v.SetDefault("REFRESH_TOKEN_EXPIRE", 43200)
	v.SetDefault("SESSION_COOKIE", "session")
	v.SetDefault("SESSION_DOMAIN", "")
	v.SetDefault("SESSION_EXPIRE_DAYS", 30)
	v.SetDefault("HASH_ROUNDS", 10000)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.ServerAddr == "" {
		return nil, errors.New("config: SERVER_ADDR must be set")
	}
	if cfg.AccessTokenExpire <= 0 {
		cfg.AccessTokenExpire = 900
	}
	if cfg.RefreshTokenExpire <= 0 {
		cfg.RefreshTokenExpire = 43200
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "session"
	}
	if cfg.SessionExpireDays <= 0 {
		cfg.SessionExpireDays = 30
	}
	if cfg.HashRounds == 0 {
		cfg.HashRounds = 10000
	}
	if cfg.HashRounds < 10000 {
		return nil, errors.New("config: HASH_ROUNDS must be at least 10000")
	}

	return &cfg, nil
}

// AccessTTL returns the access token lifetime as a time.Duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpire) * time.Second
}

// RefreshTTL returns the refresh token lifetime as a time.Duration.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpire) * time.Second
}

// SessionTTL returns the server-side session lifetime as a time.Duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionExpireDays) * 24 * time.Hour
}
