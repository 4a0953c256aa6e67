package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Upstreams.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Upstreams.OrderTimeout)
	assert.Equal(t, "stock-events", cfg.Kafka.Topic)
	assert.Equal(t, 60, cfg.RateLimit.RequestLimit)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
upstreams:
  products: http://products.internal:8001
redis:
  addr: localhost:6379
`), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://products.internal:8001", cfg.Upstreams.Products)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	// 文件里没写的字段保持默认值
	assert.Equal(t, "http://localhost:8000", cfg.Upstreams.Inventory)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("PRODUCT_SERVICE_URL", "http://env-products:8001")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/gateway")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "http://env-products:8001", cfg.Upstreams.Products)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/gateway", cfg.MySQL.DSN)
}

func TestInvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
