package connection

import (
	"context"
	"sync"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/core/service"
	"github.com/yndnr/tablesh/internal/storage"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
	"github.com/yndnr/tablesh/internal/telemetry/metric"
	"github.com/yndnr/tablesh/pkg/visibility"
)

// Connection describes the store a session opens.
type Connection struct {
	User           string
	Storage        storage.Config
	Authorizations visibility.Authorizations
}

// Manager is the state of one shell session.
type Manager struct {
	mu sync.RWMutex

	conn         *Connection
	store        *storage.Store
	currentTable string
	teeTarget    string

	tables *service.TableService
	tee    *service.TeeService
	scans  *service.ScanService

	writerCfg domain.WriterConfig
	logger    logger.Logger
	metrics   *metric.Registry
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics records store and tee metrics in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(m *Manager) {
		m.metrics = reg
	}
}

// WithTeeWriterConfig sets the bounds of the per-entry tee write handle.
func WithTeeWriterConfig(cfg domain.WriterConfig) Option {
	return func(m *Manager) {
		m.writerCfg = cfg
	}
}

// NewManager creates a session manager with no open store.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		writerCfg: format.DefaultCopierConfig(),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens the store described by conn.
func (m *Manager) Connect(conn *Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		return domain.ErrAlreadyConnected
	}

	log := m.logger.With("user", conn.User)
	opts := []storage.Option{storage.WithAuthorizations(conn.Authorizations)}
	if m.metrics != nil {
		opts = append(opts, storage.WithMetrics(m.metrics))
	}
	store, err := storage.Open(conn.Storage, log, opts...)
	if err != nil {
		return err
	}
	if m.metrics != nil {
		if err := store.RegisterMetrics(m.metrics.Registerer()); err != nil {
			log.Warn("store metrics unavailable", "error", err)
		}
	}

	copierOpts := []format.CopierOption{
		format.WithWriterConfig(m.writerCfg),
		format.WithLogger(log),
	}
	if m.metrics != nil {
		copierOpts = append(copierOpts, format.WithMetrics(m.metrics))
	}
	copier := format.NewCopier(format.WriterFactoryFunc(
		func(ctx context.Context, table string, cfg domain.WriterConfig) (format.Writer, error) {
			w, err := store.NewBatchWriter(ctx, table, cfg)
			if err != nil {
				return nil, err
			}
			return w, nil
		}), copierOpts...)

	m.conn = conn
	m.store = store
	m.tables = service.NewTableService(store, log)
	m.tee = service.NewTeeService(store, log)
	m.scans = service.NewScanService(store, copier, log)
	return nil
}

// Disconnect closes the store and resets the session state.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.conn = nil
	m.store = nil
	m.tables, m.tee, m.scans = nil, nil, nil
	m.currentTable = ""
	m.teeTarget = ""
	return err
}

// Current returns the open connection, or nil.
func (m *Manager) Current() *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

// IsConnected returns true if a store is open.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store != nil
}

// Store returns the open store.
func (m *Manager) Store() (*storage.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.store == nil {
		return nil, domain.ErrNotConnected
	}
	return m.store, nil
}

// Tables returns the table service of the open store.
func (m *Manager) Tables() (*service.TableService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.store == nil {
		return nil, domain.ErrNotConnected
	}
	return m.tables, nil
}

// Tee returns the tee toggle service of the open store.
func (m *Manager) Tee() (*service.TeeService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.store == nil {
		return nil, domain.ErrNotConnected
	}
	return m.tee, nil
}

// Scans returns the scan service of the open store.
func (m *Manager) Scans() (*service.ScanService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.store == nil {
		return nil, domain.ErrNotConnected
	}
	return m.scans, nil
}

// User returns the session user, or "" when not connected.
func (m *Manager) User() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.conn == nil {
		return ""
	}
	return m.conn.User
}

// CurrentTable returns the table commands default to.
func (m *Manager) CurrentTable() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTable
}

// UseTable makes an existing table current.
func (m *Manager) UseTable(ctx context.Context, name string) error {
	store, err := m.Store()
	if err != nil {
		return err
	}
	ok, err := store.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTableNotFound.WithDetails(name)
	}

	m.mu.Lock()
	m.currentTable = name
	m.mu.Unlock()
	return nil
}

// ForgetTable clears the current table if it is name.
func (m *Manager) ForgetTable(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentTable == name {
		m.currentTable = ""
	}
}

// TeeTarget returns the table scans are mirrored into, or "".
func (m *Manager) TeeTarget() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.teeTarget
}

// SetTeeTarget records the mirror table. "" clears it.
func (m *Manager) SetTeeTarget(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teeTarget = table
}

// Authorizations returns the labels held by the session.
func (m *Manager) Authorizations() (visibility.Authorizations, error) {
	store, err := m.Store()
	if err != nil {
		return visibility.Authorizations{}, err
	}
	return store.Authorizations(), nil
}

// SetAuthorizations replaces the labels held by the session.
func (m *Manager) SetAuthorizations(auths visibility.Authorizations) error {
	store, err := m.Store()
	if err != nil {
		return err
	}
	store.SetAuthorizations(auths)

	m.mu.Lock()
	m.conn.Authorizations = auths
	m.mu.Unlock()
	return nil
}

var _ service.SessionState = (*Manager)(nil)
