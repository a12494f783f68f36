package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

type Config struct {
	APIBaseURL string
	APITimeout time.Duration
	Currency   currency.Unit
	CacheTTL   time.Duration
}

// Load reads configuration from an optional .env file and the environment.
func Load() (Config, error) {
	// Missing .env is fine, real environments set variables directly.
	_ = godotenv.Load()

	cfg := Config{
		APIBaseURL: os.Getenv("CART_API_BASE_URL"),
		APITimeout: 10 * time.Second,
		Currency:   currency.EUR,
		CacheTTL:   168 * time.Hour,
	}

	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("CART_API_BASE_URL is empty")
	}

	if raw := os.Getenv("CART_API_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("CART_API_TIMEOUT[%s]: %w", raw, err)
		}
		cfg.APITimeout = timeout
	}

	if raw := os.Getenv("CART_CURRENCY"); raw != "" {
		unit, err := currency.ParseISO(raw)
		if err != nil {
			return Config{}, fmt.Errorf("CART_CURRENCY[%s] is not valid: %w", raw, err)
		}
		cfg.Currency = unit
	}

	if raw := os.Getenv("CART_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("CART_CACHE_TTL[%s]: %w", raw, err)
		}
		cfg.CacheTTL = ttl
	}

	return cfg, nil
}
