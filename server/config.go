package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings, loaded from a yaml file with env
// overrides for deployment.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`
}

// ListenAddr returns the configured listen address, defaulting to :3000.
func (c *Config) ListenAddr() string {
	if c.Addr == "" {
		return ":3000"
	}
	return c.Addr
}

// LoadConfig reads the yaml config at path. An empty path yields a zero
// config. DATABASE_URL from the environment always wins over the file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is not set (config file or DATABASE_URL)")
	}

	return &cfg, nil
}
