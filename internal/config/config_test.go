// ABOUTME: Tests for configuration loading, env expansion and validation
// ABOUTME: Writes temp YAML files and exercises Load end to end

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leadgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
server:
  http_addr: ":8080"
database:
  path: "/tmp/leadgate.db"
auth:
  jwt_secret: "test-secret"
completion:
  base_url: "https://api.groq.com/openai/v1"
  api_key: "key"
  default_model: "llama-3.1-8b-instant"
  models:
    orchestrator: "llama-3.3-70b-versatile"
    captador: "gemma2-9b-it"
  timeout: "5s"
memory:
  max_turns: 50
  context_turns: 10
  retention: "12h"
  sweep_interval: "30m"
company:
  name: "Orbita"
logging:
  level: "debug"
  format: "text"
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/leadgate.db", cfg.Database.Path)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Completion.Models["orchestrator"])
	assert.Equal(t, 50, cfg.Memory.MaxTurns)
	assert.Equal(t, 12*time.Hour, cfg.Memory.Retention)
	assert.Equal(t, 30*time.Minute, cfg.Memory.SweepInterval)
	assert.Equal(t, "Orbita", cfg.Company.Name)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "/tmp/leadgate.db"
auth:
  jwt_secret: "s"
completion:
  base_url: "https://api.groq.com/openai/v1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, 0.7, cfg.Completion.Temperature)
	assert.Equal(t, 1000, cfg.Completion.MaxTokens)
	assert.Equal(t, 100, cfg.Memory.MaxTurns)
	assert.Equal(t, 10, cfg.Memory.ContextTurns)
	assert.Equal(t, 24*time.Hour, cfg.Memory.Retention)
	assert.Equal(t, time.Hour, cfg.Memory.SweepInterval)
	assert.Equal(t, "USD", cfg.Estimation.Currency)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("LEADGATE_TEST_SECRET", "from-env")

	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "/tmp/leadgate.db"
auth:
  jwt_secret: "${LEADGATE_TEST_SECRET}"
completion:
  base_url: "https://api.groq.com/openai/v1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing http addr",
			yaml:    "database:\n  path: /tmp/x.db\nauth:\n  jwt_secret: s\ncompletion:\n  base_url: http://x\n",
			wantErr: "server.http_addr",
		},
		{
			name:    "missing database path",
			yaml:    "server:\n  http_addr: ':8080'\nauth:\n  jwt_secret: s\ncompletion:\n  base_url: http://x\n",
			wantErr: "database.path",
		},
		{
			name:    "missing jwt secret",
			yaml:    "server:\n  http_addr: ':8080'\ndatabase:\n  path: /tmp/x.db\ncompletion:\n  base_url: http://x\n",
			wantErr: "auth.jwt_secret",
		},
		{
			name:    "missing completion base url",
			yaml:    "server:\n  http_addr: ':8080'\ndatabase:\n  path: /tmp/x.db\nauth:\n  jwt_secret: s\n",
			wantErr: "completion.base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "/tmp/leadgate.db"
auth:
  jwt_secret: "s"
completion:
  base_url: "http://x"
  timeout: "not-a-duration"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion.timeout")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
