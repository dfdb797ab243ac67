package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "soap.exports", cfg.ExportTopic)
	assert.Equal(t, 4, cfg.ExportWorkers)
	assert.Equal(t, 256, cfg.ExportQueueSize)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 1.0, cfg.TraceSampleRate)
	assert.False(t, cfg.TracingEnabled)
	assert.False(t, cfg.ExportsEnabled())
	assert.True(t, cfg.IsDev())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("API_KEYS", "k1:ward-a, k2:ward-b")
	t.Setenv("DATABASE_URL", "postgres://soap@localhost/soap")
	t.Setenv("KAFKA_BROKERS", "rp-0:9092,rp-1:9092")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"rp-0:9092", "rp-1:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.TracingEnabled)
	assert.True(t, cfg.ExportsEnabled())
	assert.Equal(t, map[string]string{"k1": "ward-a", "k2": "ward-b"}, cfg.APIKeys())
}

func TestLoad_DotEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("EXPORT_WORKERS=8\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := load(file)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ExportWorkers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ProductionRequiresAPIKeys(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := load(missingFile(t))
	assert.ErrorContains(t, err, "API_KEYS")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Port: "8081", Env: "development", ExportWorkers: 1, ExportQueueSize: 1, TraceSampleRate: 0.5, SessionTTL: time.Hour}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.ExportWorkers = 0
	assert.Error(t, c.Validate())

	c = base()
	c.TraceSampleRate = 1.5
	assert.Error(t, c.Validate())

	c = base()
	c.SessionTTL = 0
	assert.Error(t, c.Validate())
}

func TestAPIKeys_BareKey(t *testing.T) {
	c := &Config{APIKeysRaw: "solo,,k:c"}
	assert.Equal(t, map[string]string{"solo": "solo", "k": "c"}, c.APIKeys())
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
