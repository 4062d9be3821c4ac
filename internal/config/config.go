package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

type Config struct {
	Port                 string
	DBPath               string
	LogLevel             log.Lvl
	OurBIC               string
	DefaultReceiverBIC   string
	RedemptionReportsDir string
	EODReportsDir        string
	SeedOnEmpty          bool
	MarketDataMaxAge     time.Duration
}

// New reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBPath:               getEnv("DB_PATH", "treasury.db"),
		OurBIC:               getEnv("SWIFT_OUR_BIC", "TRMSUS33XXX"),
		DefaultReceiverBIC:   getEnv("SWIFT_DEFAULT_RECEIVER_BIC", "CHASUS33XXX"),
		RedemptionReportsDir: getEnv("REDEMPTION_REPORTS_DIR", "data/redemptions"),
		EODReportsDir:        getEnv("EOD_REPORTS_DIR", "data/eod-reports"),
	}

	var err error
	cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg.SeedOnEmpty, err = getEnvAsBool("SEED_ON_EMPTY", true)
	if err != nil {
		return nil, err
	}

	maxAge, err := getEnvAsInt("MARKET_DATA_MAX_AGE_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("invalid value for MARKET_DATA_MAX_AGE_MINUTES: must be positive, got %d", maxAge)
	}
	cfg.MarketDataMaxAge = time.Duration(maxAge) * time.Minute

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}

	return value, nil
}

func parseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG, nil
	case "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return 0, fmt.Errorf("invalid value for LOG_LEVEL: got '%s'", s)
}
