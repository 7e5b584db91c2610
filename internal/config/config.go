// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"SH_ADDR" envDefault:":8080"`

	// Debug enables debug-level logging.
	Debug bool `env:"SH_DEBUG" envDefault:"false"`

	// BaseURL is the externally reachable address used in join links and
	// QR codes.
	BaseURL string `env:"SH_BASE_URL" envDefault:"http://localhost:8080"`

	// BotDelayMin and BotDelayMax bound the randomized thinking delay of
	// automated participants.
	BotDelayMin time.Duration `env:"SH_BOT_DELAY_MIN" envDefault:"1s"`
	BotDelayMax time.Duration `env:"SH_BOT_DELAY_MAX" envDefault:"5s"`

	// BotErrorRate overrides the per-difficulty misplay probability when
	// set to a value in [0,1]; negative keeps the per-bot rates.
	BotErrorRate float64 `env:"SH_BOT_ERROR_RATE" envDefault:"-1"`

	// AvoidEarlyHitler keeps fascist bots from nominating hitler as
	// chancellor before three fascist policies are enacted.
	AvoidEarlyHitler bool `env:"SH_AVOID_EARLY_HITLER" envDefault:"true"`

	// SessionTTL is how long an idle session survives; SweepInterval is
	// how often idleness is checked.
	SessionTTL    time.Duration `env:"SH_SESSION_TTL" envDefault:"1h"`
	SweepInterval time.Duration `env:"SH_SWEEP_INTERVAL" envDefault:"5m"`
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BotDelayMax < cfg.BotDelayMin {
		return Config{}, fmt.Errorf("bot delay: max %s below min %s", cfg.BotDelayMax, cfg.BotDelayMin)
	}
	if cfg.BotErrorRate > 1 {
		return Config{}, fmt.Errorf("bot error rate: %v above 1", cfg.BotErrorRate)
	}
	return cfg, nil
}
