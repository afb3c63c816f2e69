// Package config loads wpm settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jwulff/wpm/internal/daemon"
	"gopkg.in/yaml.v3"
)

// Config holds process-level settings. Reader-facing settings such as the
// timer length and colors live in the database instead.
type Config struct {
	SocketPath   string        `yaml:"socket_path"`
	DBPath       string        `yaml:"db_path"`
	LogFile      string        `yaml:"log_file"`
	LogLevel     string        `yaml:"log_level"`
	Locale       string        `yaml:"locale"`
	Device       string        `yaml:"device"`
	TickInterval time.Duration `yaml:"tick_interval"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	dir := baseDir()
	return &Config{
		SocketPath:   daemon.DefaultSocketPath(),
		DBPath:       filepath.Join(dir, "wpm.db"),
		LogFile:      filepath.Join(dir, "wpm.log"),
		LogLevel:     "info",
		Locale:       "en_US",
		TickInterval: 10 * time.Millisecond,
	}
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wpm"
	}
	return filepath.Join(home, ".wpm")
}

// DefaultPath returns the config file location: WPM_CONFIG, or
// ~/.wpm/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("WPM_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(baseDir(), "config.yaml")
}

// Load reads path over the defaults and then applies environment overrides.
// An empty path means DefaultPath, which may be absent. An explicit path
// must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("opening config: %w", err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WPM_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("WPM_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WPM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks values a YAML file could have set to nonsense.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.SocketPath == "" {
		return errors.New("socket_path is required")
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	return nil
}
