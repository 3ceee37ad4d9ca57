package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "http://localhost:3000")
	t.Setenv("WALLET_OWNER", "alice")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.RemoteBaseURL)
	assert.Equal(t, "alice", cfg.Owner)
	assert.Equal(t, "wallet.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ":8080", cfg.HealthAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PATH", "/tmp/w.db")
	t.Setenv("PROBE_INTERVAL", "250ms")
	t.Setenv("LOG_FILE", "/tmp/wallet.log")
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DISCORD_CHANNEL_ID", "chan")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/w.db", cfg.DBPath)
	assert.Equal(t, 250*time.Millisecond, cfg.ProbeInterval)
	assert.Equal(t, "/tmp/wallet.log", cfg.LogFile)
	assert.NoError(t, cfg.RequireDiscord())
}

func TestLoadRequiresRemote(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "")
	t.Setenv("WALLET_OWNER", "alice")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REMOTE_BASE_URL", "http://localhost:3000")
	t.Setenv("WALLET_OWNER", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("PROBE_INTERVAL", "0s")
	_, err := Load()
	assert.Error(t, err)
}

func TestRequireDiscord(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DISCORD_CHANNEL_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.RequireDiscord())
}
