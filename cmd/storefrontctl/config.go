package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STOREFRONT__"

// Config is the storefrontctl configuration.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Storage StorageConfig `koanf:"storage"`
	Log     LogConfig     `koanf:"log"`
	List    ListConfig    `koanf:"list"`
}

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL  string `koanf:"base_url"`
	Timeout  string `koanf:"timeout"`
	Manifest string `koanf:"manifest"`
}

// StorageConfig locates the local key/value file (token, user, theme,
// dismissed banners).
type StorageConfig struct {
	Path string `koanf:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Color    *bool  `koanf:"color"`
	FilePath string `koanf:"file_path"`
}

// ListConfig holds admin list defaults.
type ListConfig struct {
	PageSize int `koanf:"page_size"`
}

func defaultConfig() Config {
	return Config{
		API:     APIConfig{BaseURL: "http://localhost:8000", Timeout: "10s"},
		Storage: StorageConfig{Path: ".storefront/state.yaml"},
		Log:     LogConfig{Level: "warn", Format: "text"},
		List:    ListConfig{PageSize: 10},
	}
}

// LoadConfig reads path (optional) and overlays STOREFRONT__ environment
// variables, e.g. STOREFRONT__API__BASE_URL overrides api.base_url.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("stat config file %s: %w", path, err)
			}
		} else if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, envPrefix)
		key = strings.ToLower(key)
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes values and rejects unsupported ones.
func (c *Config) Validate() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("invalid api.base_url %q: must start with http:// or https://", c.API.BaseURL)
	}

	c.API.Timeout = strings.TrimSpace(c.API.Timeout)
	if c.API.Timeout != "" {
		d, err := time.ParseDuration(c.API.Timeout)
		if err != nil {
			return fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid api.timeout %q: must be greater than 0", c.API.Timeout)
		}
	}

	c.Storage.Path = strings.TrimSpace(c.Storage.Path)

	if c.List.PageSize <= 0 {
		return fmt.Errorf("invalid list.page_size %d: must be positive", c.List.PageSize)
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	return nil
}

// RequestTimeout returns the parsed api.timeout, or zero when unset.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.API.Timeout)
	return d
}
