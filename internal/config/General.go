package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// OwnerAddress is the account whose positions are monitored and rebalanced.
	OwnerAddress string
	// PoolID is the venue pool this instance watches.
	PoolID string

	// SigningKey is the credential forwarded to the gateway for transaction
	// signing. Required; the process refuses to start without it.
	SigningKey string
	// SignerAddress is the address the gateway signs with, when known. It may
	// legitimately differ from OwnerAddress (monitoring-only deployments), so
	// a mismatch is a warning rather than an error.
	SignerAddress string

	// SlippagePercent is the tolerance applied to deposit submissions.
	SlippagePercent float64
	// PollIntervalMs is the fixed delay between poll cycles.
	PollIntervalMs int64
	// RangeHalfWidth is the target range half-width, in tick-spacing units.
	RangeHalfWidth int64
	// SwapSafeMode is passed through to the swap quoting service.
	SwapSafeMode bool
)

const (
	defaultSlippagePercent = 0.1
	defaultPollIntervalMs  = 60000
	defaultRangeHalfWidth  = 10
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. Endpoint and signing variables are required; the
// strategy knobs fall back to documented defaults.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	OwnerAddress, err = getEnv("OWNER_ADDRESS")
	if err != nil {
		return err
	}

	PoolID, err = getEnv("POOL_ID")
	if err != nil {
		return err
	}

	SigningKey, err = getEnv("SIGNING_KEY")
	if err != nil {
		return err
	}

	SignerAddress = os.Getenv("SIGNER_ADDRESS")

	SlippagePercent, err = getEnvAsFloat64WithDefault("SLIPPAGE_PERCENT", defaultSlippagePercent)
	if err != nil {
		return err
	}
	if SlippagePercent < 0 || SlippagePercent > 100 {
		return errors.New("SLIPPAGE_PERCENT must be between 0 and 100")
	}

	PollIntervalMs, err = getEnvAsInt64WithDefault("POLL_INTERVAL_MS", defaultPollIntervalMs)
	if err != nil {
		return err
	}
	if PollIntervalMs <= 0 {
		return errors.New("POLL_INTERVAL_MS must be positive")
	}

	RangeHalfWidth, err = getEnvAsInt64WithDefault("RANGE_HALF_WIDTH", defaultRangeHalfWidth)
	if err != nil {
		return err
	}
	if RangeHalfWidth < 0 {
		return errors.New("RANGE_HALF_WIDTH cannot be negative")
	}

	SwapSafeMode, err = getEnvAsBoolWithDefault("SWAP_SAFE_MODE", true)
	if err != nil {
		return err
	}

	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("OwnerAddress", OwnerAddress).
		Str("PoolID", PoolID).
		Float64("SlippagePercent", SlippagePercent).
		Int64("PollIntervalMs", PollIntervalMs).
		Int64("RangeHalfWidth", RangeHalfWidth).
		Bool("SwapSafeMode", SwapSafeMode).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt64WithDefault retrieves an environment variable as an int64,
// falling back to the default when unset. Returns error if set but invalid.
func getEnvAsInt64WithDefault(key string, fallback int64) (int64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64WithDefault retrieves an environment variable as a float64,
// falling back to the default when unset. Returns error if set but invalid.
func getEnvAsFloat64WithDefault(key string, fallback float64) (float64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsBoolWithDefault retrieves an environment variable as a bool,
// falling back to the default when unset. Returns error if set but invalid.
func getEnvAsBoolWithDefault(key string, fallback bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, errors.New("environment variable " + key + " must be a valid bool, got: " + valueStr)
	}
	return value, nil
}
