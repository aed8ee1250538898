package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg := FromViper(v)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:5173")

	assert.Equal(t, 90, cfg.Decision.SlowMovingThresholdDays)
	assert.Equal(t, 0.2, cfg.Decision.LowStockThresholdPercent)
	assert.Equal(t, 7, cfg.Decision.LeadTimeDays)
	assert.Equal(t, 14, cfg.Decision.SafetyBufferDays)

	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Store.DatasetTTL)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Storage.Enabled)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "decision_exchange", cfg.Events.Exchange)
	assert.Empty(t, cfg.Drive.SyncSchedule)
	assert.Equal(t, 4, cfg.App.IngestWorkers)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("SAFETY_BUFFER_DAYS", 21)
	v.Set("REORDER_LEAD_TIME_DAYS", 10)
	v.Set("STORE_BACKEND", StoreBackendPostgres)
	v.Set("DATASET_TTL_HOURS", 2)
	v.Set("CACHE_ENABLED", true)

	cfg := FromViper(v)

	assert.Equal(t, 21, cfg.Decision.SafetyBufferDays)
	assert.Equal(t, 10, cfg.Decision.LeadTimeDays)
	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Store.DatasetTTL)
	assert.True(t, cfg.Cache.Enabled)
}

func TestFromViper_Env(t *testing.T) {
	t.Setenv("SLOW_MOVING_THRESHOLD_DAYS", "45")

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	assert.Equal(t, 45, FromViper(v).Decision.SlowMovingThresholdDays)
}
