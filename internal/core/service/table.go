package service

import (
	"context"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/storage"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
)

// TableStore is the store interface used by TableService.
type TableStore interface {
	TableCatalog
	DeleteTable(ctx context.Context, name string) error
	ListTables(ctx context.Context) ([]string, error)
	Properties(ctx context.Context, table string) (map[string]string, error)
	NewBatchWriter(ctx context.Context, table string, cfg domain.WriterConfig) (*storage.BatchWriter, error)
}

// TableService handles table lifecycle, properties and single-cell writes.
type TableService struct {
	store  TableStore
	logger logger.Logger
}

// NewTableService creates a TableService.
func NewTableService(store TableStore, log logger.Logger) *TableService {
	if log == nil {
		log = logger.Discard()
	}
	return &TableService{store: store, logger: log}
}

// Create creates an empty table.
func (s *TableService) Create(ctx context.Context, name string) error {
	return s.store.CreateTable(ctx, name)
}

// Delete deletes a table. When the session is teeing into it the tee
// target is cleared.
func (s *TableService) Delete(ctx context.Context, session SessionState, name string) error {
	if err := s.store.DeleteTable(ctx, name); err != nil {
		return err
	}
	if session != nil && session.TeeTarget() == name {
		session.SetTeeTarget("")
		s.logger.Info("tee target deleted, tee cleared", "table", name)
	}
	return nil
}

// List returns all table names.
func (s *TableService) List(ctx context.Context) ([]string, error) {
	return s.store.ListTables(ctx)
}

// Exists reports whether a table exists.
func (s *TableService) Exists(ctx context.Context, name string) (bool, error) {
	return s.store.TableExists(ctx, name)
}

// Properties returns a table's properties.
func (s *TableService) Properties(ctx context.Context, table string) (map[string]string, error) {
	return s.store.Properties(ctx, table)
}

// SetProperty sets a table property.
func (s *TableService) SetProperty(ctx context.Context, table, key, value string) error {
	return s.store.SetProperty(ctx, table, key, value)
}

// RemoveProperty removes a table property.
func (s *TableService) RemoveProperty(ctx context.Context, table, key string) error {
	return s.store.RemoveProperty(ctx, table, key)
}

// CellRequest addresses a single cell.
type CellRequest struct {
	Table      string
	Row        []byte
	Family     []byte
	Qualifier  []byte
	Visibility []byte
	// Timestamp is used when set; otherwise the write time is used for
	// inserts and every version is removed for deletes.
	Timestamp *int64
	Value     []byte
}

// Insert writes one cell and waits until it is durable.
func (s *TableService) Insert(ctx context.Context, req *CellRequest) error {
	m := domain.NewMutation(req.Row)
	if req.Timestamp != nil {
		m.Put(req.Family, req.Qualifier, req.Visibility, *req.Timestamp, req.Value)
	} else {
		m.PutNow(req.Family, req.Qualifier, req.Visibility, req.Value)
	}
	return s.apply(ctx, req.Table, m)
}

// DeleteCell deletes one cell and waits until the delete is durable.
func (s *TableService) DeleteCell(ctx context.Context, req *CellRequest) error {
	m := domain.NewMutation(req.Row)
	if req.Timestamp != nil {
		m.PutDelete(req.Family, req.Qualifier, req.Visibility, *req.Timestamp, true)
	} else {
		m.PutDelete(req.Family, req.Qualifier, req.Visibility, 0, false)
	}
	return s.apply(ctx, req.Table, m)
}

func (s *TableService) apply(ctx context.Context, table string, m *domain.Mutation) error {
	if table == "" {
		return domain.ErrNoCurrentTable
	}
	w, err := s.store.NewBatchWriter(ctx, table, domain.DefaultWriterConfig())
	if err != nil {
		return err
	}
	if err := w.AddMutation(m); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
