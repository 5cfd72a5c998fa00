package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// clearEnv evita que el entorno del runner pise los valores esperados.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "CONSOLE_PORT", "LOG_LEVEL", "LOG_FORMAT", "APP_NAME", "FACILITY_TZ", "BACKEND_TIMEOUT", "BOARD_RESEED_ON_EPOCH"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.API, cfg.API)
	assert.Equal(t, want.Console.Addr, cfg.Console.Addr)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.False(t, cfg.Board.ReseedOnEpochAdvance)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "runboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: kennel-east
  timezone: UTC
log:
  level: debug
console:
  addr: ":9090"
backend:
  url: http://backend:8080
  timeout: 3s
board:
  reseed_on_epoch_advance: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kennel-east", cfg.App.Name)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Console.Addr)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.Board.ReseedOnEpochAdvance)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"PORT":                  "9000",
		"CONSOLE_PORT":          "9001",
		"DB_DSN":                "postgres://x",
		"BACKEND_URL":           "http://api:9000",
		"BACKEND_DEBUG_USER":    "op-1",
		"BACKEND_TIMEOUT":       "2s",
		"RABBITMQ_URL":          "amqp://guest:guest@mq:5672/",
		"BOARD_RESEED_ON_EPOCH": "true",
		"LOG_LEVEL":             " warn ",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.API.Addr)
	assert.Equal(t, ":9001", cfg.Console.Addr)
	assert.Equal(t, "postgres://x", cfg.Database.DSN)
	assert.Equal(t, "http://api:9000", cfg.Backend.URL)
	assert.Equal(t, "op-1", cfg.Backend.DebugUser)
	assert.Equal(t, 2*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.RabbitMQ.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Board.ReseedOnEpochAdvance)
}

func TestApplyEnv_RejectsBadValues(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.applyEnv(envMap(map[string]string{"BACKEND_TIMEOUT": "soon"})))

	cfg = Default()
	assert.Error(t, cfg.applyEnv(envMap(map[string]string{"BOARD_RESEED_ON_EPOCH": "maybe"})))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.App.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, cfg.Validate())
}
