package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m4n1nh0/campus-map-app/logger"
)

const envPrefix = "CAMPUS"

// Config holds every setting of the service. Values come from DefaultConfig,
// then the YAML file, then CAMPUS_* environment variables.
type Config struct {
	Server ServerConfig  `yaml:"server"`
	Graph  GraphConfig   `yaml:"graph"`
	Log    logger.Config `yaml:"log"`
	Redis  RedisConfig   `yaml:"redis"`
	Neo4j  Neo4jConfig   `yaml:"neo4j"`
	MCP    MCPConfig     `yaml:"mcp"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	CORSOrigin   string        `yaml:"cors_origin" split_words:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout time.Duration `yaml:"write_timeout" split_words:"true"`
}

type GraphConfig struct {
	Source   string `yaml:"source"` // file or neo4j
	Path     string `yaml:"path"`
	AreasDir string `yaml:"areas_dir" split_words:"true"`
}

type RedisConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	TTL     time.Duration `yaml:"ttl"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type MCPConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			CORSOrigin:   "*",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Graph: GraphConfig{
			Source: "file",
			Path:   "navigation_graph.json",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
			TTL: time.Hour,
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		MCP: MCPConfig{
			Name:    "campus-map",
			Version: "1.0.0",
		},
	}
}

// LoadConfig reads path (a missing file keeps the defaults), loads a .env file
// if present and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("error parsing YAML: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("error loading .env file: %w", err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("error processing environment configuration: %w", err)
	}

	return cfg, cfg.Validate()
}

// WithAddr returns a copy of the config listening on addr.
func (c Config) WithAddr(addr string) Config {
	c.Server.Addr = addr
	return c
}

// WithGraphPath returns a copy of the config reading the graph from a file.
func (c Config) WithGraphPath(path string) Config {
	c.Graph.Source = "file"
	c.Graph.Path = path
	return c
}

// WithRedis returns a copy of the config with the route cache enabled/disabled.
func (c Config) WithRedis(enabled bool) Config {
	c.Redis.Enabled = enabled
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return &ConfigError{Field: "server.addr", Message: "must not be empty"}
	}
	switch c.Graph.Source {
	case "file":
		if c.Graph.Path == "" {
			return &ConfigError{Field: "graph.path", Message: "must not be empty for file source"}
		}
	case "neo4j":
		if c.Neo4j.URI == "" {
			return &ConfigError{Field: "neo4j.uri", Message: "must not be empty for neo4j source"}
		}
	default:
		return &ConfigError{Field: "graph.source", Message: "must be file or neo4j"}
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return &ConfigError{Field: "redis.url", Message: "must not be empty when redis is enabled"}
	}
	if c.Redis.TTL < 0 {
		return &ConfigError{Field: "redis.ttl", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}
