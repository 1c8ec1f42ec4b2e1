package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-report/internal/rules"
)

// unsetEnv clears keys for the test; t.Setenv restores them afterwards
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	unsetEnv(t, "STORE", "HTTP_ADDR", "SLOT1_LATE_AFTER", "SLOT2_EARLY_BEFORE", "SLOT3_LATE_AFTER",
		"SLOT4_EARLY_BEFORE", "INCLUDE_SATURDAY", "POCKETBASE_RPS", "POCKETBASE_URL")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StorePocketBase, cfg.Store)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, rules.DefaultThresholds(), cfg.Thresholds)
	assert.False(t, cfg.IncludeSaturday)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE", "memory")
	t.Setenv("SLOT1_LATE_AFTER", "08:00")
	t.Setenv("SLOT4_EARLY_BEFORE", "16:30")
	t.Setenv("INCLUDE_SATURDAY", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 480, cfg.Thresholds.MorningInLateAfter)
	assert.Equal(t, 990, cfg.Thresholds.AfternoonOutEarlyBefore)
	assert.True(t, cfg.IncludeSaturday)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad store", "STORE", "redis"},
		{"bad threshold", "SLOT2_EARLY_BEFORE", "11h15"},
		{"bad rps", "POCKETBASE_RPS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
