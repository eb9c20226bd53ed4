package configs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		_ = os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "WORKER_POOL_SIZE", "STRICT_12", "GS1_EPC_FORMAT", "DB_HOST", "AUDITLOG_ENABLED")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.True(t, cfg.Strict12)
	assert.Equal(t, "NoPreference", cfg.EpcFormat)
	assert.Equal(t, "127.0.0.1", cfg.DBHost)
	assert.False(t, cfg.AuditLogEnabled)
}

func TestLoadReadsOverrides(t *testing.T) {
	clearEnv(t, "WORKER_POOL_SIZE", "GS1_EPC_FORMAT", "AUDITLOG_ENABLED")
	require.NoError(t, os.Setenv("WORKER_POOL_SIZE", "8"))
	require.NoError(t, os.Setenv("GS1_EPC_FORMAT", "AlwaysDigitalLink"))
	require.NoError(t, os.Setenv("AUDITLOG_ENABLED", "true"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, "AlwaysDigitalLink", cfg.EpcFormat)
	assert.True(t, cfg.AuditLogEnabled)
}

func TestLoadRejectsNonPositiveWorkerPoolSize(t *testing.T) {
	clearEnv(t, "WORKER_POOL_SIZE")
	require.NoError(t, os.Setenv("WORKER_POOL_SIZE", "0"))

	_, err := Load()
	require.Error(t, err)
}
