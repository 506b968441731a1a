package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/storage"
)

// CLIConfig is the configuration for the tablesh shell.
type CLIConfig struct {
	// DataDir holds the store files. Ignored when InMemory is set.
	DataDir  string `koanf:"data_dir" yaml:"data_dir"`
	InMemory bool   `koanf:"in_memory" yaml:"in_memory"`

	// User names the session in logs and the prompt.
	User string `koanf:"user" yaml:"user"`
	// Authorizations are the labels the session may read and write.
	Authorizations []string `koanf:"authorizations" yaml:"authorizations"`

	// DefaultTable is selected when the shell starts.
	DefaultTable string `koanf:"default_table" yaml:"default_table,omitempty"`
	// Output is the format of listing commands: table, json or yaml.
	Output         string `koanf:"output" yaml:"output"`
	ShowTimestamps bool   `koanf:"show_timestamps" yaml:"show_timestamps"`
	HistoryFile    string `koanf:"history_file" yaml:"history_file"`

	Log    LogConfig            `koanf:"log" yaml:"log"`
	Tee    TeeConfig            `koanf:"tee" yaml:"tee"`
	Badger storage.BadgerConfig `koanf:"badger" yaml:"badger"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// TeeConfig bounds the write handle opened for every teed entry.
type TeeConfig struct {
	BufferBytes  int64         `koanf:"buffer_bytes" yaml:"buffer_bytes"`
	MaxLatency   time.Duration `koanf:"max_latency" yaml:"max_latency"`
	WriteThreads int           `koanf:"write_threads" yaml:"write_threads"`
}

// WriterConfig converts the tee bounds for the copier.
func (t TeeConfig) WriterConfig() domain.WriterConfig {
	return domain.WriterConfig{
		MaxMemory:       t.BufferBytes,
		MaxLatency:      t.MaxLatency,
		MaxWriteThreads: t.WriteThreads,
	}
}

// StoreConfig returns the store configuration.
func (c *CLIConfig) StoreConfig() storage.Config {
	return storage.Config{
		Dir:      c.DataDir,
		InMemory: c.InMemory,
		Badger:   c.Badger,
	}
}

// Default returns the default shell configuration.
func Default() *CLIConfig {
	user := os.Getenv("USER")
	if user == "" {
		user = "root"
	}
	copier := format.DefaultCopierConfig()
	return &CLIConfig{
		DataDir:        filepath.Join(homeDir(), ".tablesh", "data"),
		User:           user,
		Authorizations: []string{},
		Output:         "table",
		HistoryFile:    filepath.Join(homeDir(), ".tablesh", "history"),
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Tee: TeeConfig{
			BufferBytes:  copier.MaxMemory,
			MaxLatency:   copier.MaxLatency,
			WriteThreads: copier.MaxWriteThreads,
		},
		Badger: storage.DefaultBadgerConfig(),
	}
}

func homeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return dir
}
