package config

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"ADDR", "API_BASE", "DB_DRIVER", "PG_HOST", "PG_PASSWORD", "REDIS_CLUSTER", "REDIS_ADDRESS", "CACHE_TTL", "HISTORY_LIMIT", "MINIO_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.Addr, ":8080")
	assert.Equal(t, cfg.APIBase, "/api")
	assert.Equal(t, cfg.Database.Driver, DriverPostgres)
	assert.Equal(t, cfg.Database.PostgresDSN(), "postgres://postgres@localhost:5432/mapeditor?sslmode=disable")
	assert.Equal(t, cfg.Redis.Enabled(), false)
	assert.Equal(t, cfg.Redis.TTL, 5*time.Minute)
	assert.Equal(t, cfg.HistoryLimit, 50)
	assert.Equal(t, cfg.Minio.Enabled(), false)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE", "v2/")
	t.Setenv("PG_PASSWORD", "pw")
	t.Setenv("REDIS_CLUSTER", "10.0.0.1:6379, 10.0.0.2:6379,")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("HISTORY_LIMIT", "20")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_RETURN_URL", "")

	cfg, err := FromEnv()
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.APIBase, "/v2")
	assert.Equal(t, cfg.Redis.ClusterAddrs, []string{"10.0.0.1:6379", "10.0.0.2:6379"})
	assert.Equal(t, cfg.Redis.TTL, 90*time.Second)
	assert.Equal(t, cfg.HistoryLimit, 20)
	assert.Equal(t, cfg.Minio.ReturnURL, "http://minio:9000")
	assert.Equal(t, cfg.Database.PostgresDSN()[:23], "postgres://postgres:pw@")
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	_, err := FromEnv()
	assert.NotEqual(t, err, nil)

	t.Setenv("CACHE_TTL", "")
	t.Setenv("DB_DRIVER", "sqlite")
	_, err = FromEnv()
	assert.NotEqual(t, err, nil)
}
