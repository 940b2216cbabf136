package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// TestLoadDefaults verifies the server starts on pure defaults when no
// config file exists at the given path.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":17171", cfg.Server.WebSocket.Address)
	assert.Equal(t, 60*time.Second, cfg.Server.WebSocket.ReadTimeout)
	assert.Equal(t, 500, cfg.Server.MaxSessions)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10, cfg.Game.MaxTurns)
	assert.False(t, cfg.Game.AdvancedRules)
	assert.Equal(t, "replays", cfg.Game.ReplayDir)
	assert.True(t, cfg.Game.RecordReplays)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  websocket:
    address: ":9000"
logging:
  level: debug
game:
  max_turns: 4
  advanced_rules: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.WebSocket.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Game.MaxTurns)
	assert.True(t, cfg.Game.AdvancedRules)

	// Unset keys keep their defaults.
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "replays", cfg.Game.ReplayDir)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "server: [not: valid: yaml")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "empty listen address",
			contents: `
server:
  websocket:
    address: ""
`,
		},
		{
			name: "zero max turns",
			contents: `
game:
  max_turns: 0
`,
		},
		{
			name: "bcrypt cost too low",
			contents: `
auth:
  bcrypt_cost: 3
`,
		},
		{
			name: "bcrypt cost too high",
			contents: `
auth:
  bcrypt_cost: 32
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
		})
	}
}
