// Package config loads the tattoo studio settings from a TOML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	appName    = "tattoo-studio"
	configFile = "config.toml"
)

// Config holds all settings.
type Config struct {
	Stability Stability `toml:"stability"`
	Library   Library   `toml:"library"`
	Cache     Cache     `toml:"cache"`
	Web       Web       `toml:"web"`
	Log       Log       `toml:"log"`
}

// Stability configures the image generation API.
type Stability struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Engine         string  `toml:"engine"`
	CFGScale       float64 `toml:"cfg_scale"`
	Steps          int     `toml:"steps"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Retries        int     `toml:"retries"`
}

// Timeout returns the per-attempt request timeout.
func (s Stability) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Library configures the design database. An empty path disables it.
type Library struct {
	Path string `toml:"path"`
}

// Cache sizes the in-memory caches.
type Cache struct {
	RenderEntries int `toml:"render_entries"`
	DesignEntries int `toml:"design_entries"`
}

// Web configures the HTTP server.
type Web struct {
	Addr string `toml:"addr"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Debug reports whether debug logging is enabled.
func (l Log) Debug() bool {
	return strings.EqualFold(l.Level, "debug")
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Stability: Stability{
			BaseURL:        "https://api.stability.ai",
			Engine:         "stable-diffusion-xl-1024-v1-0",
			CFGScale:       7,
			Steps:          30,
			TimeoutSeconds: 60,
			Retries:        2,
		},
		Library: Library{Path: filepath.Join(DataDir(), "library.db")},
		Cache:   Cache{RenderEntries: 64, DesignEntries: 32},
		Web:     Web{Addr: ":8080"},
		Log:     Log{Level: "info"},
	}
}

// Load reads the config file at path over the defaults and applies
// environment overrides. An empty path means $TATTOO_STUDIO_CONFIG, then
// the user config directory; a missing file there is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("TATTOO_STUDIO_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = filepath.Join(Dir(), configFile)
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg)
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return applyEnv(cfg)
}

func applyEnv(cfg Config) (Config, error) {
	if key := os.Getenv("STABILITY_API_KEY"); key != "" {
		cfg.Stability.APIKey = key
	}
	if level := os.Getenv("TATTOO_STUDIO_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Web.Addr = ":" + port
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.Stability.Steps <= 0 {
		return fmt.Errorf("stability.steps must be positive, got %d", c.Stability.Steps)
	}
	if c.Stability.CFGScale <= 0 {
		return fmt.Errorf("stability.cfg_scale must be positive, got %v", c.Stability.CFGScale)
	}
	if c.Stability.TimeoutSeconds <= 0 {
		return fmt.Errorf("stability.timeout_seconds must be positive, got %d", c.Stability.TimeoutSeconds)
	}
	if c.Stability.Retries < 0 {
		return fmt.Errorf("stability.retries must not be negative, got %d", c.Stability.Retries)
	}
	if c.Cache.RenderEntries <= 0 || c.Cache.DesignEntries <= 0 {
		return fmt.Errorf("cache sizes must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

// Write saves cfg as TOML, creating the directory if needed. The API key is
// never written.
func Write(path string, cfg Config) error {
	cfg.Stability.APIKey = ""
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Dir returns the user config directory.
func Dir() string {
	return filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), appName)
}

// DataDir returns the user data directory.
func DataDir() string {
	return filepath.Join(xdgOrFallback("XDG_DATA_HOME", filepath.Join(os.Getenv("HOME"), ".local", "share")), appName)
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), configFile)
}

func xdgOrFallback(xdg string, fallback string) string {
	if dir := os.Getenv(xdg); dir != "" {
		return dir
	}
	return fallback
}
