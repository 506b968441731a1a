package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
	"github.com/yndnr/tablesh/internal/telemetry/metric"
	"github.com/yndnr/tablesh/pkg/visibility"
)

// Store is a set of sorted tables kept in one Badger database.
type Store struct {
	db      *badger.DB
	cfg     Config
	logger  logger.Logger
	metrics *metric.Registry

	// auths are the labels held by the session that opened the store. They
	// bound scan authorizations and back the visibility constraint.
	mu    sync.RWMutex
	auths visibility.Authorizations

	lastGCTime atomic.Int64 // Unix milliseconds

	registerer prometheus.Registerer
	collectors []prometheus.Collector

	closed atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records scan and write counters in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Store) {
		s.metrics = reg
	}
}

// WithAuthorizations sets the labels held by the opening session.
func WithAuthorizations(auths visibility.Authorizations) Option {
	return func(s *Store) {
		s.auths = auths
	}
}

// Open opens (or creates) a store.
func Open(cfg Config, log logger.Logger, opts ...Option) (*Store, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(cfg.Dir)
	}
	bopts.Logger = &badgerLogger{logger: log.With("component", "badger")}

	bc := cfg.Badger
	if bc.CacheSize > 0 {
		bopts.BlockCacheSize = bc.CacheSize
	}
	if bc.ValueLogFileSize > 0 {
		bopts.ValueLogFileSize = bc.ValueLogFileSize
	}
	if bc.NumMemtables > 0 {
		bopts.NumMemtables = bc.NumMemtables
	}
	if bc.NumLevelZeroTables > 0 {
		bopts.NumLevelZeroTables = bc.NumLevelZeroTables
	}
	if bc.NumLevelZeroTablesStall > 0 {
		bopts.NumLevelZeroTablesStall = bc.NumLevelZeroTablesStall
	}
	bopts.SyncWrites = bc.SyncWrites

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, domain.ErrStorage.WithDetails("open db").WithCause(err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: log,
		auths:  visibility.NewAuthorizations(),
	}
	for _, opt := range opts {
		opt(s)
	}

	log.Info("table store opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"sync_writes", bc.SyncWrites)

	return s, nil
}

// Authorizations returns the labels held by the session.
func (s *Store) Authorizations() visibility.Authorizations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auths
}

// SetAuthorizations replaces the labels held by the session.
func (s *Store) SetAuthorizations(auths visibility.Authorizations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auths = auths
}

// Stats contains storage statistics.
type Stats struct {
	Tables       int   `json:"tables"`
	LSMSize      int64 `json:"lsm_size"`
	ValueLogSize int64 `json:"value_log_size"`
	LastGCTime   int64 `json:"last_gc_time"`
}

// Stats returns storage statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	lsm, vlog := s.db.Size()
	return &Stats{
		Tables:       len(tables),
		LSMSize:      lsm,
		ValueLogSize: vlog,
		LastGCTime:   s.lastGCTime.Load(),
	}, nil
}

// GC runs value log garbage collection until nothing more can be
// rewritten. Returns the number of log files rewritten.
func (s *Store) GC(ctx context.Context) (int, error) {
	if s.cfg.InMemory {
		s.logger.Debug("gc skipped for in-memory store")
		return 0, nil
	}

	start := time.Now()
	rewritten := 0
	for {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		err := s.db.RunValueLogGC(s.cfg.Badger.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return rewritten, domain.ErrStorage.WithDetails("gc").WithCause(err)
		}
		rewritten++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.logger.Info("gc completed",
		"files_rewritten", rewritten,
		"elapsed", time.Since(start))

	return rewritten, nil
}

// RegisterMetrics exposes store size gauges on reg. The gauges are
// removed again by Close.
func (s *Store) RegisterMetrics(reg prometheus.Registerer) error {
	lsm := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tablesh",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	}, func() float64 {
		l, _ := s.db.Size()
		return float64(l)
	})
	vlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tablesh",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	}, func() float64 {
		_, v := s.db.Size()
		return float64(v)
	})
	lastGC := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tablesh",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value log GC run",
	}, func() float64 {
		return float64(s.lastGCTime.Load()) / 1000.0
	})

	for _, c := range []prometheus.Collector{lsm, vlog, lastGC} {
		if err := reg.Register(c); err != nil {
			s.unregisterMetrics()
			return fmt.Errorf("register store metrics: %w", err)
		}
		s.collectors = append(s.collectors, c)
	}
	s.registerer = reg
	return nil
}

func (s *Store) unregisterMetrics() {
	if s.registerer == nil {
		return
	}
	for _, c := range s.collectors {
		s.registerer.Unregister(c)
	}
	s.collectors = nil
}

// Close flushes and closes the database. Open cursors must be closed first.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.unregisterMetrics()

	if err := s.db.Close(); err != nil {
		return domain.ErrStorage.WithDetails("close db").WithCause(err)
	}

	s.logger.Info("table store closed")
	return nil
}

// badgerLogger adapts Logger to Badger's Logger interface. Badger's info
// output is routine and goes to debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
