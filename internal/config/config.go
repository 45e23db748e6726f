// Package config loads server settings.
//
// Sources, later ones win:
//   - built-in defaults
//   - an optional YAML file
//   - a .env file in the working directory (development)
//   - process environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the server reads.
type Config struct {
	Port         string `yaml:"port" env:"PORT"`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL"`
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"`
	Environment  string `yaml:"environment" env:"APP_ENV"` // "production" enables secure cookies

	JWTSecret      string `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiresDays int    `yaml:"jwt_expires_days" env:"JWT_EXPIRES_DAYS"`
	CookieName     string `yaml:"cookie_name" env:"COOKIE_NAME"`
	ClientOrigin   string `yaml:"client_origin" env:"CLIENT_ORIGIN"`

	RateLimitCalls  int           `yaml:"rate_limit_calls" env:"RATE_LIMIT_CALLS"`
	RateLimitPeriod time.Duration `yaml:"rate_limit_period" env:"RATE_LIMIT_PERIOD"`

	// GameRetention is how long saved games are kept; zero keeps them forever.
	GameRetention  time.Duration `yaml:"game_retention" env:"GAME_RETENTION"`
	// SessionIdleTTL drops in-progress games nobody rolled into for this long;
	// zero keeps them until restart.
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl" env:"SESSION_IDLE_TTL"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Port:            "8000",
		LogLevel:        "info",
		DatabasePath:    "./data/bowlards.db",
		Environment:     "development",
		JWTSecret:       "dev_secret_change_me",
		JWTExpiresDays:  14,
		CookieName:      "bowlards_token",
		ClientOrigin:    "http://localhost:3000",
		RateLimitCalls:  1000,
		RateLimitPeriod: time.Hour,
		GameRetention:   90 * 24 * time.Hour,
		SessionIdleTTL:  24 * time.Hour,
	}
}

// Load builds a Config from path (optional, YAML) and the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	_ = godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// Production reports whether secure cookie settings apply.
func (c Config) Production() bool { return c.Environment == "production" }

// TokenTTL is the lifetime of issued JWTs.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

func (c Config) validate() error {
	if c.Production() && c.JWTSecret == Default().JWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.RateLimitCalls < 0 || c.RateLimitPeriod < 0 {
		return errors.New("rate limit settings must not be negative")
	}
	if c.GameRetention < 0 || c.SessionIdleTTL < 0 {
		return errors.New("retention settings must not be negative")
	}
	return nil
}
