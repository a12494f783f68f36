package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabhat76/lincee-cart/internal/config"
)

func TestLoad(t *testing.T) {
	t.Setenv("CART_API_BASE_URL", "https://cart.example.com/api/v1")
	t.Setenv("CART_API_TIMEOUT", "")
	t.Setenv("CART_CURRENCY", "")
	t.Setenv("CART_CACHE_TTL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cart.example.com/api/v1", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, "EUR", cfg.Currency.String())
	assert.Equal(t, 168*time.Hour, cfg.CacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CART_API_BASE_URL", "https://cart.example.com/api/v1")
	t.Setenv("CART_API_TIMEOUT", "3s")
	t.Setenv("CART_CURRENCY", "USD")
	t.Setenv("CART_CACHE_TTL", "24h")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "USD", cfg.Currency.String())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantError string
	}{
		{
			name:      "missing base URL",
			env:       map[string]string{"CART_API_BASE_URL": ""},
			wantError: "CART_API_BASE_URL is empty",
		},
		{
			name: "bad timeout",
			env: map[string]string{
				"CART_API_BASE_URL": "https://cart.example.com",
				"CART_API_TIMEOUT":  "soon",
			},
			wantError: "CART_API_TIMEOUT",
		},
		{
			name: "bad currency",
			env: map[string]string{
				"CART_API_BASE_URL": "https://cart.example.com",
				"CART_CURRENCY":     "no",
			},
			wantError: "CART_CURRENCY[no] is not valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CART_API_TIMEOUT", "")
			t.Setenv("CART_CURRENCY", "")
			t.Setenv("CART_CACHE_TTL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.ErrorContains(t, err, tt.wantError)
		})
	}
}
