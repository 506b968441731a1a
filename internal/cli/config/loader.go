package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/infra/confloader"
)

// DefaultConfigPath returns the default shell config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".tablesh", "config.yaml")
}

// Load builds the configuration from the defaults, the file at path,
// TABLESH_ environment variables and overrides, in increasing priority.
// A missing file is not an error. overrides uses dotted keys such as
// "log.level".
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, confloader.WithConfigFile(path))
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, domain.ErrInvalidConfig.WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *CLIConfig) Validate() error {
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return domain.ErrInvalidConfig.WithDetailsf("output must be table, json or yaml, got %q", c.Output)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return domain.ErrInvalidConfig.WithDetailsf("unknown log level %q", c.Log.Level)
	}
	if !c.InMemory && c.DataDir == "" {
		return domain.ErrInvalidConfig.WithDetails("data_dir is required unless in_memory is set")
	}
	if c.Tee.BufferBytes <= 0 || c.Tee.MaxLatency <= 0 || c.Tee.WriteThreads <= 0 {
		return domain.ErrInvalidConfig.WithDetails("tee buffer_bytes, max_latency and write_threads must be positive")
	}
	if c.Badger.GCThreshold <= 0 || c.Badger.GCThreshold >= 1 {
		return domain.ErrInvalidConfig.WithDetailsf("badger.gc_threshold must be in (0, 1), got %v", c.Badger.GCThreshold)
	}
	return nil
}

// Save writes the configuration as YAML, readable by the owner only.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
