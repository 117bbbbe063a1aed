package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, 15*time.Second, cfg.HttpServer.TimeoutRead)
	assert.Equal(t, "9090", cfg.GrpcServer.Port)
	assert.Equal(t, SourceMemory, cfg.Catalog.Source)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
}

func TestLoad_PostgresSource(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "postgres")
	_, err := Load()
	require.Error(t, err, "postgres source without credentials should fail")
	assert.Contains(t, err.Error(), "POSTGRES_HOST")

	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "market")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DBNAME", "marketplace")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=market password=secret dbname=marketplace sslmode=disable", cfg.Postgres.DSN())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown source", "CATALOG_SOURCE", "mongo"},
		{"unknown env", "APP_ENV", "qa"},
		{"unknown level", "LOG_LEVEL", "verbose"},
		{"non numeric port", "HTTP_SERVER_PORT", "eighty"},
		{"zero cache ttl", "REDIS_CATALOG_TTL", "0s"},
		{"bad duration", "HTTP_SERVER_TIMEOUT_READ", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
