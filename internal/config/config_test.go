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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  host: db.internal
  port: 5433
  user: orders
  password: secret
  database: orders
  max_conns: 25
rabbitmq:
  host: mq.internal
  user: guest
  password: guest
redis:
  host: cache.internal
  password: hunter2
  db: 2
cache:
  ttl_seconds: 60
transaction:
  timeout_seconds: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "disable", cfg.Database.SSLMode, "unset fields keep their defaults")
	assert.Equal(t, "mq.internal", cfg.RabbitMQ.Host)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, "/", cfg.RabbitMQ.VHost)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, time.Minute, cfg.Cache.TTL())
	assert.Equal(t, 5*time.Second, cfg.Transaction.Timeout())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: postgres
  database: orders
rabbitmq:
  host: localhost
  user: guest
redis:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, 10*time.Second, cfg.Transaction.Timeout())
}

func TestLoadRejectsIncompleteSections(t *testing.T) {
	testCases := map[string]string{
		"missing database": `
rabbitmq:
  host: localhost
  user: guest
redis:
  host: localhost
`,
		"database without user": `
database:
  host: localhost
  database: orders
rabbitmq:
  host: localhost
  user: guest
redis:
  host: localhost
`,
		"missing rabbitmq": `
database:
  host: localhost
  user: postgres
  database: orders
redis:
  host: localhost
`,
		"missing redis": `
database:
  host: localhost
  user: postgres
  database: orders
rabbitmq:
  host: localhost
  user: guest
`,
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "database: [not a mapping"))
		require.Error(t, err)
	})
}
