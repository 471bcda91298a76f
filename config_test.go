package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "file", cfg.Graph.Source)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
}

func TestLoadConfig_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9090"
  read_timeout: 3s
graph:
  path: data/campus.json
  areas_dir: data/areas
redis:
  enabled: true
  ttl: 15m
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	t.Setenv("CAMPUS_SERVER_CORS_ORIGIN", "https://mapa.example.edu")
	t.Setenv("CAMPUS_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("CAMPUS_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "https://mapa.example.edu", cfg.Server.CORSOrigin)
	assert.Equal(t, "data/campus.json", cfg.Graph.Path)
	assert.Equal(t, "data/areas", cfg.Graph.AreasDir)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"empty addr", DefaultConfig().WithAddr(""), "server.addr"},
		{"empty graph path", DefaultConfig().WithGraphPath(""), "graph.path"},
		{"unknown source", func() Config { c := DefaultConfig(); c.Graph.Source = "sqlite"; return c }(), "graph.source"},
		{"neo4j without uri", func() Config { c := DefaultConfig(); c.Graph.Source = "neo4j"; c.Neo4j.URI = ""; return c }(), "neo4j.uri"},
		{"redis without url", func() Config { c := DefaultConfig().WithRedis(true); c.Redis.URL = ""; return c }(), "redis.url"},
		{"negative ttl", func() Config { c := DefaultConfig(); c.Redis.TTL = -time.Second; return c }(), "redis.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), "config error: "+tt.field)
		})
	}
}

func TestConfig_WithSettersCopy(t *testing.T) {
	base := DefaultConfig()
	changed := base.WithAddr(":1").WithGraphPath("other.json").WithRedis(true)

	assert.Equal(t, ":8080", base.Server.Addr)
	assert.False(t, base.Redis.Enabled)
	assert.Equal(t, ":1", changed.Server.Addr)
	assert.Equal(t, "other.json", changed.Graph.Path)
	assert.True(t, changed.Redis.Enabled)
}
