package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// unsetenv removes a variable for the duration of the test. t.Setenv is
// called first so the original value is restored on cleanup.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OWNER_ADDRESS", "0xowner")
	t.Setenv("POOL_ID", "pool-1")
	t.Setenv("SIGNING_KEY", "key-material")
	t.Setenv("GATEWAY_API", "http://localhost:9000")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	require.NoError(t, LoadConfig())

	require.Equal(t, "0xowner", OwnerAddress)
	require.Equal(t, "pool-1", PoolID)
	require.Equal(t, 0.1, SlippagePercent)
	require.Equal(t, int64(60000), PollIntervalMs)
	require.Equal(t, int64(10), RangeHalfWidth)
	require.True(t, SwapSafeMode)
	require.Equal(t, "http://localhost:9000", GatewayAPI)
	require.Equal(t, "8080", WebPort)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SLIPPAGE_PERCENT", "0.5")
	t.Setenv("POLL_INTERVAL_MS", "5000")
	t.Setenv("RANGE_HALF_WIDTH", "25")
	t.Setenv("SWAP_SAFE_MODE", "false")
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("GATEWAY_API_KEY", "secret")

	require.NoError(t, LoadConfig())

	require.Equal(t, 0.5, SlippagePercent)
	require.Equal(t, int64(5000), PollIntervalMs)
	require.Equal(t, int64(25), RangeHalfWidth)
	require.False(t, SwapSafeMode)
	require.Equal(t, "9090", WebPort)
	require.Equal(t, "secret", GatewayAPIKey)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	required := []string{"OWNER_ADDRESS", "POOL_ID", "SIGNING_KEY", "GATEWAY_API"}
	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			unsetenv(t, missing)

			err := LoadConfig()
			require.Error(t, err)
			require.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "slippage not a number", key: "SLIPPAGE_PERCENT", value: "lots"},
		{name: "slippage above 100", key: "SLIPPAGE_PERCENT", value: "150"},
		{name: "negative slippage", key: "SLIPPAGE_PERCENT", value: "-1"},
		{name: "zero poll interval", key: "POLL_INTERVAL_MS", value: "0"},
		{name: "poll interval not a number", key: "POLL_INTERVAL_MS", value: "soon"},
		{name: "negative half width", key: "RANGE_HALF_WIDTH", value: "-3"},
		{name: "safe mode not a bool", key: "SWAP_SAFE_MODE", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)
			require.Error(t, LoadConfig())
		})
	}
}
