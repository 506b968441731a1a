package service

import (
	"context"
	"errors"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/storage"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
)

// TableScanner is the part of the store a formatted scan reads from.
type TableScanner interface {
	Scan(ctx context.Context, table string, opts storage.ScanOptions) (*storage.Cursor, error)
	Property(ctx context.Context, table, key string) (string, bool, error)
}

// ScanRequest contains the parameters of a formatted scan.
type ScanRequest struct {
	Table          string
	Options        storage.ScanOptions
	ShowTimestamps bool
}

// Scan is a running formatted scan. Close releases the underlying cursor.
type Scan struct {
	format.Formatter
	cursor *storage.Cursor

	// FormatterName is the formatter in use after any fallback.
	FormatterName string
}

// Close releases the scan.
func (s *Scan) Close() error {
	return s.cursor.Close()
}

// ScanService starts scans displayed through the table's formatter.
type ScanService struct {
	store  TableScanner
	copier *format.Copier
	logger logger.Logger
}

// NewScanService creates a ScanService. copier writes mirrored entries when
// a table selects the tee formatter.
func NewScanService(store TableScanner, copier *format.Copier, log logger.Logger) *ScanService {
	if log == nil {
		log = logger.Discard()
	}
	return &ScanService{store: store, copier: copier, logger: log}
}

// Open resolves the formatter selected by the table's formatter property
// and starts a scan through it. An unknown formatter falls back to the
// default formatter. The tee formatter needs a session tee target that
// differs from the scanned table.
func (s *ScanService) Open(ctx context.Context, session SessionState, req *ScanRequest) (*Scan, error) {
	if req.Table == "" {
		return nil, domain.ErrNoCurrentTable
	}

	name, _, err := s.store.Property(ctx, req.Table, storage.PropFormatter)
	if err != nil {
		return nil, err
	}

	var tee *format.TeeContext
	if name == format.TeeFormatterName {
		tc, err := format.NewTeeContext(ctx, req.Table, session.TeeTarget(), s.copier)
		if err != nil {
			return nil, err
		}
		tee = &tc
	}

	f, err := format.New(name, tee)
	if errors.Is(err, domain.ErrUnknownFormatter) {
		s.logger.Warn("unknown formatter, using default", "table", req.Table, "formatter", name)
		name = format.DefaultFormatterName
		f, err = format.New(name, nil)
	}
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = format.DefaultFormatterName
	}

	cursor, err := s.store.Scan(ctx, req.Table, req.Options)
	if err != nil {
		return nil, err
	}
	if err := f.Initialize(cursor, req.ShowTimestamps); err != nil {
		cursor.Close()
		return nil, err
	}

	s.logger.Debug("scan started", "table", req.Table, "formatter", name)
	return &Scan{Formatter: f, cursor: cursor, FormatterName: name}, nil
}
