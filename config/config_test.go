package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"RPC_URL", "CHAIN_ID", "CGW_URL", "DB_DRIVER", "DB_DSN", "HTTP_SERVER_PORT", "BOT_API_KEY", "RECOVERER_PRIVATE_KEY", "HTTP_API_TOKEN", "RECOVERY_REFRESH_DELAY", "HISTORY_POLL_INTERVAL", "RPC_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.ChainId)
	assert.Equal(t, defaultCGWURL, cfg.CGWURL)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.HTTPServerPort)
	assert.Equal(t, 5*time.Minute, cfg.RefreshDelay)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 15*time.Second, cfg.RPCTimeout)
	assert.Empty(t, cfg.HTTPAPIToken)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("CHAIN_ID", "100")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("RECOVERY_REFRESH_DELAY", "1m")
	t.Setenv("RPC_TIMEOUT", "3s")
	t.Setenv("HTTP_API_TOKEN", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, int64(100), cfg.ChainId)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.RefreshDelay)
	assert.Equal(t, 3*time.Second, cfg.RPCTimeout)
	assert.Equal(t, "s3cret", cfg.HTTPAPIToken)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CHAIN_ID":               "gnosis",
		"RECOVERY_REFRESH_DELAY": "soon",
		"HISTORY_POLL_INTERVAL":  "-1s",
		"DB_DRIVER":              "mysql",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}
