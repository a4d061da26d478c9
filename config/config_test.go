package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := load(writeConfig(t, "log_level: debug\n"))
		require.NoError(t, err)

		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPServerAddr)
		assert.Equal(t, 5*time.Second, cfg.HTTPRequestTimeout)
		assert.Equal(t, DefaultCatalogURL, cfg.Catalog.URL)
		assert.Zero(t, cfg.Catalog.Timeout)
		assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL)
		assert.Equal(t, time.Minute, cfg.Sessions.SweepInterval)
		assert.False(t, cfg.Broker.Enabled())
		assert.Equal(t, "storefront-cart-events", cfg.Broker.CartEventsTopic)
	})

	t.Run("Full", func(t *testing.T) {
		cfg, err := load(writeConfig(t, `
log_level: warn
http_server_addr: "127.0.0.1:9000"
http_request_timeout: 2s
catalog:
  url: http://localhost/catalog.json
  timeout: 3s
sessions:
  idle_ttl: 10m
  sweep_interval: 30s
broker:
  seed_brokers: ["k1:9092", "k2:9092"]
  schema_registry_urls: ["http://sr:8081"]
  cart_events_topic: cart-events
  tls:
    ca: /certs/ca.pem
`))
		require.NoError(t, err)

		assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
		assert.Equal(t, "127.0.0.1:9000", cfg.HTTPServerAddr)
		assert.Equal(t, 2*time.Second, cfg.HTTPRequestTimeout)
		assert.Equal(t, "http://localhost/catalog.json", cfg.Catalog.URL)
		assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
		assert.Equal(t, 10*time.Minute, cfg.Sessions.IdleTTL)
		assert.Equal(t, 30*time.Second, cfg.Sessions.SweepInterval)
		assert.True(t, cfg.Broker.Enabled())
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.SeedBrokers)
		assert.Equal(t, []string{"http://sr:8081"}, cfg.Broker.SchemaRegistryURLs)
		assert.Equal(t, "cart-events", cfg.Broker.CartEventsTopic)
		assert.True(t, cfg.Broker.TLS.Enabled())
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := load(writeConfig(t, "sql_db: postgres://\n"))
		assert.Error(t, err)
	})

	t.Run("BadLevel", func(t *testing.T) {
		_, err := load(writeConfig(t, "log_level: loud\n"))
		assert.Error(t, err)
	})

	t.Run("BrokerWithoutRegistry", func(t *testing.T) {
		_, err := load(writeConfig(t, "broker:\n  seed_brokers: [\"k1:9092\"]\n"))
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestConfigPrint(t *testing.T) {
	cfg, err := load(writeConfig(t, "log_level: info\n"))
	require.NoError(t, err)
	assert.NotPanics(t, cfg.Print)
}
