package storage

// Config configures the table store.
type Config struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string `koanf:"dir" yaml:"dir"`

	// InMemory keeps all data in memory. Used by tests and scratch sessions.
	InMemory bool `koanf:"in_memory" yaml:"in_memory"`

	// Badger-specific configuration
	Badger BadgerConfig `koanf:"badger" yaml:"badger"`
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCThreshold is the value log discard ratio (0.0-1.0) used by compact.
	// Default: 0.5 (rewrite a log file once half of it is stale)
	GCThreshold float64 `koanf:"gc_threshold" yaml:"gc_threshold"`

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64 `koanf:"cache_size" yaml:"cache_size"`

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64 `koanf:"value_log_file_size" yaml:"value_log_file_size"`

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int `koanf:"num_memtables" yaml:"num_memtables"`

	// NumLevelZeroTables is the number of Level 0 tables before compaction.
	// Default: 5
	NumLevelZeroTables int `koanf:"num_level_zero_tables" yaml:"num_level_zero_tables"`

	// NumLevelZeroTablesStall is the number of Level 0 tables that triggers write stall.
	// Default: 10
	NumLevelZeroTablesStall int `koanf:"num_level_zero_tables_stall" yaml:"num_level_zero_tables_stall"`

	// SyncWrites fsyncs every committed write. A flushed writer is only
	// durable on disk when this is set.
	// Default: true
	SyncWrites bool `koanf:"sync_writes" yaml:"sync_writes"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// InMemoryConfig returns a configuration for a throwaway in-memory store.
func InMemoryConfig() Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	return cfg
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCThreshold:             0.5,
		CacheSize:               64 << 20,  // 64MB
		ValueLogFileSize:        256 << 20, // 256MB
		NumMemtables:            2,
		NumLevelZeroTables:      5,
		NumLevelZeroTablesStall: 10,
		SyncWrites:              true,
	}
}
