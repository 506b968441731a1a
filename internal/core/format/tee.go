package format

import (
	"context"

	"github.com/yndnr/tablesh/internal/core/domain"
)

// TeeContext is the resolved tee configuration of one scan. It does not
// change once created.
type TeeContext struct {
	ctx    context.Context
	source string
	target string
	copier *Copier
}

// NewTeeContext binds a scan of source to a mirror table. Teeing a table
// into itself is rejected.
func NewTeeContext(ctx context.Context, source, target string, copier *Copier) (TeeContext, error) {
	if target == "" {
		return TeeContext{}, domain.ErrTeeTargetNotSet
	}
	if target == source {
		return TeeContext{}, domain.ErrSelfTee.WithDetails(target)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return TeeContext{ctx: ctx, source: source, target: target, copier: copier}, nil
}

// Source returns the scanned table.
func (tc TeeContext) Source() string { return tc.source }

// Target returns the mirror table.
func (tc TeeContext) Target() string { return tc.target }

// TeeFormatter mirrors every entry it yields into the target table.
type TeeFormatter struct {
	tee TeeContext

	state          lifecycle
	entries        EntryIterator
	showTimestamps bool
}

// NewTeeFormatter creates an uninitialized TeeFormatter.
func NewTeeFormatter(tee TeeContext) *TeeFormatter {
	return &TeeFormatter{tee: tee}
}

// Target returns the mirror table.
func (f *TeeFormatter) Target() string {
	return f.tee.target
}

// Initialize binds the formatter to a scan.
func (f *TeeFormatter) Initialize(entries EntryIterator, showTimestamps bool) error {
	if f.state != uninitialized {
		return domain.ErrAlreadyInitialized.WithDetails("tee formatter")
	}
	f.entries = entries
	f.showTimestamps = showTimestamps
	f.state = active
	return nil
}

// HasNext reports whether the scan has more entries.
func (f *TeeFormatter) HasNext() (bool, error) {
	if f.state != active {
		return false, domain.ErrNotInitialized.WithDetails("tee formatter")
	}
	return f.entries.HasNext(), nil
}

// Next pulls one entry, copies it into the target table and renders it.
// When the copy fails nothing is rendered and the error is returned.
func (f *TeeFormatter) Next() (string, error) {
	if f.state != active {
		return "", domain.ErrNotInitialized.WithDetails("tee formatter")
	}
	e, err := f.entries.Next()
	if err != nil {
		return "", err
	}
	if f.tee.copier == nil {
		return "", domain.ErrTeeTargetNotSet.WithDetails("no copier")
	}
	if err := f.tee.copier.Copy(f.tee.ctx, f.tee.target, e); err != nil {
		return "", err
	}
	return Render(e, f.showTimestamps), nil
}

// Remove removes the last entry from the scanned table. The mirrored copy
// is kept.
func (f *TeeFormatter) Remove() error {
	if f.state != active {
		return domain.ErrNotInitialized.WithDetails("tee formatter")
	}
	return f.entries.Remove()
}
