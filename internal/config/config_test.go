package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageCheckInterval(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", DefaultMessageCheckInterval},
		{"100", 100 * time.Millisecond},
		{" 2500 ", 2500 * time.Millisecond},
		{"abc", DefaultMessageCheckInterval},
		{"1m", DefaultMessageCheckInterval},
		{"0", DefaultMessageCheckInterval},
		{"-5", DefaultMessageCheckInterval},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := &Config{MessageCheckIntervalMs: tt.raw}
			assert.Equal(t, tt.want, c.MessageCheckInterval())
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MESSAGE_CHECK_INTERVAL=250\nSWEEP_WORKERS=4\n"), 0o600))
	t.Setenv("SWEEP_QUERY_TIMEOUT", "2s")
	// godotenv does not override variables already present in the process.
	t.Setenv("MESSAGE_CHECK_INTERVAL", "")
	require.NoError(t, os.Unsetenv("MESSAGE_CHECK_INTERVAL"))
	t.Setenv("SWEEP_WORKERS", "")
	require.NoError(t, os.Unsetenv("SWEEP_WORKERS"))

	require.NoError(t, Load(path))
	c := Get()

	assert.Equal(t, 250*time.Millisecond, c.MessageCheckInterval())
	assert.Equal(t, 4, c.SweepWorkers)
	assert.Equal(t, 2*time.Second, c.SweepQueryTimeout)
	assert.Equal(t, 5*time.Second, c.SweepUpdateTimeout)
	assert.Equal(t, "log", c.DeliveryChannel)
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func TestEnvPath(t *testing.T) {
	assert.Equal(t, "/etc/tc.env", EnvPath([]string{"bin", "--env=/etc/tc.env"}))
	assert.Equal(t, "", EnvPath([]string{"bin"}))
}

func TestConnectionOptions(t *testing.T) {
	c := &Config{
		PostgresReadHost:  "replica",
		PostgresWriteHost: "primary",
		PostgresSSLMode:   "require",
		RedisAddr:         "redis:6379",
		RedisDatabase:     2,
	}

	assert.Equal(t, "replica", c.PostgresRead().Host)
	assert.Equal(t, "primary", c.PostgresWrite().Host)
	assert.Equal(t, "require", c.PostgresWrite().SSLMode)

	opts := c.Redis("scheduler")
	assert.Equal(t, []string{"redis:6379"}, opts.Addrs)
	assert.Equal(t, "scheduler", opts.ClientName)
	assert.Equal(t, 2, opts.DB)
}
