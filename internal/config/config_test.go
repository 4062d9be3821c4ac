package config

import (
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_PATH", "LOG_LEVEL", "SWIFT_OUR_BIC", "SWIFT_DEFAULT_RECEIVER_BIC",
		"REDEMPTION_REPORTS_DIR", "EOD_REPORTS_DIR", "SEED_ON_EMPTY", "MARKET_DATA_MAX_AGE_MINUTES",
	} {
		t.Setenv(k, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "treasury.db", cfg.DBPath)
	assert.Equal(t, log.INFO, cfg.LogLevel)
	assert.Equal(t, "TRMSUS33XXX", cfg.OurBIC)
	assert.Equal(t, "CHASUS33XXX", cfg.DefaultReceiverBIC)
	assert.Equal(t, "data/redemptions", cfg.RedemptionReportsDir)
	assert.Equal(t, "data/eod-reports", cfg.EODReportsDir)
	assert.True(t, cfg.SeedOnEmpty)
	assert.Equal(t, time.Hour, cfg.MarketDataMaxAge)
}

func TestNew_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SEED_ON_EMPTY", "false")
	t.Setenv("MARKET_DATA_MAX_AGE_MINUTES", "15")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, log.DEBUG, cfg.LogLevel)
	assert.False(t, cfg.SeedOnEmpty)
	assert.Equal(t, 15*time.Minute, cfg.MarketDataMaxAge)
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"MARKET_DATA_MAX_AGE_MINUTES", "soon", "expected an integer"},
		{"MARKET_DATA_MAX_AGE_MINUTES", "0", "must be positive"},
		{"SEED_ON_EMPTY", "maybe", "expected a boolean"},
		{"LOG_LEVEL", "loud", "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := New()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
