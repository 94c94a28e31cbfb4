package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	CacheTTLSec int `yaml:"cache_ttl_sec"`

	HTTPAddr     string `yaml:"http_addr"`
	MaxBodyBytes int    `yaml:"max_body_bytes"`

	DiagramSquareSize int `yaml:"diagram_square_size"`
}

func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

func defaults() *AppConfig {
	return &AppConfig{
		CacheTTLSec:       3600,
		HTTPAddr:          ":8088",
		MaxBodyBytes:      1 << 20,
		DiagramSquareSize: 64,
	}
}

// Load reads the YAML file named by ASCN_CONFIG (if any) and then applies
// environment overrides on top.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("ASCN_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.applyYAML(raw); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ASCN_CACHE_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ASCN_HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ASCN_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ASCN_DIAGRAM_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DiagramSquareSize = n
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyYAML overlays non-zero fields from raw.
func (c *AppConfig) applyYAML(raw []byte) error {
	var file AppConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return err
	}
	if file.RedisURL != "" {
		c.RedisURL = strings.TrimSpace(file.RedisURL)
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = strings.TrimSpace(file.DatabaseURL)
	}
	if file.CacheTTLSec > 0 {
		c.CacheTTLSec = file.CacheTTLSec
	}
	if file.HTTPAddr != "" {
		c.HTTPAddr = strings.TrimSpace(file.HTTPAddr)
	}
	if file.MaxBodyBytes > 0 {
		c.MaxBodyBytes = file.MaxBodyBytes
	}
	if file.DiagramSquareSize > 0 {
		c.DiagramSquareSize = file.DiagramSquareSize
	}
	return nil
}

func (c *AppConfig) validate() error {
	if c.DiagramSquareSize < 16 || c.DiagramSquareSize > 256 {
		return fmt.Errorf("diagram square size %d out of range [16,256]", c.DiagramSquareSize)
	}
	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return fmt.Errorf("REDIS_URL must use redis:// or rediss://")
	}
	return nil
}
