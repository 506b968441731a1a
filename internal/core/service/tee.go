package service

import (
	"context"
	"strings"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/storage"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
)

// TableCatalog is the part of the store the tee toggle changes.
type TableCatalog interface {
	TableExists(ctx context.Context, name string) (bool, error)
	CreateTable(ctx context.Context, name string) error
	SetProperty(ctx context.Context, table, key, value string) error
	RemoveProperty(ctx context.Context, table, key string) error
}

// SessionState holds the per-session tee target. An empty target means
// teeing is off.
type SessionState interface {
	TeeTarget() string
	SetTeeTarget(table string)
}

// TeeMode selects whether a toggle attaches or detaches the tee formatter.
type TeeMode int

const (
	TeeOff TeeMode = iota
	TeeOn
)

func (m TeeMode) String() string {
	if m == TeeOn {
		return "on"
	}
	return "off"
}

// ParseTeeMode parses "on" or "off".
func ParseTeeMode(s string) (TeeMode, error) {
	switch strings.ToLower(s) {
	case "on":
		return TeeOn, nil
	case "off":
		return TeeOff, nil
	}
	return TeeOff, domain.ErrUsage.WithDetailsf("tee mode must be on or off, got %q", s)
}

// ToggleRequest contains the parameters of a tee toggle.
type ToggleRequest struct {
	Source string // table whose scans are teed
	Target string // mirror table, ignored when turning tee off
	Mode   TeeMode
}

// TeeService attaches and detaches the tee formatter.
type TeeService struct {
	tables TableCatalog
	logger logger.Logger
}

// NewTeeService creates a TeeService.
func NewTeeService(tables TableCatalog, log logger.Logger) *TeeService {
	if log == nil {
		log = logger.Discard()
	}
	return &TeeService{tables: tables, logger: log}
}

// Toggle turns teeing of req.Source on or off.
//
// Turning it on rejects a target equal to the source before changing
// anything, creates the target table when missing, records the target in
// the session once the tee formatter is selected on the source table. Turning it
// off clears the session target and removes the formatter selection.
func (s *TeeService) Toggle(ctx context.Context, session SessionState, req *ToggleRequest) error {
	if req.Source == "" {
		return domain.ErrNoCurrentTable
	}

	if req.Mode == TeeOff {
		session.SetTeeTarget("")
		if err := s.tables.RemoveProperty(ctx, req.Source, storage.PropFormatter); err != nil {
			return err
		}
		s.logger.Info("tee off", "table", req.Source)
		return nil
	}

	if req.Target == req.Source {
		return domain.ErrSelfTee.WithDetails(req.Target)
	}
	if err := storage.ValidateTableName(req.Target); err != nil {
		return err
	}
	ok, err := s.tables.TableExists(ctx, req.Source)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTableNotFound.WithDetails(req.Source)
	}

	ok, err = s.tables.TableExists(ctx, req.Target)
	if err != nil {
		return err
	}
	if !ok {
		if err := s.tables.CreateTable(ctx, req.Target); err != nil && !domain.IsDomainError(err, domain.ErrTableExists.Code) {
			return err
		}
		s.logger.Info("tee target created", "table", req.Target)
	}

	if err := s.tables.SetProperty(ctx, req.Source, storage.PropFormatter, format.TeeFormatterName); err != nil {
		return err
	}
	session.SetTeeTarget(req.Target)

	s.logger.Info("tee on", "table", req.Source, "target", req.Target)
	return nil
}
