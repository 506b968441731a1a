package format

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
	"github.com/yndnr/tablesh/internal/telemetry/metric"
	"github.com/yndnr/tablesh/pkg/visibility"
)

// Writer is a write handle bound to one table.
type Writer interface {
	AddMutation(m *domain.Mutation) error
	Close() error
}

// WriterFactory opens write handles.
type WriterFactory interface {
	NewWriter(ctx context.Context, table string, cfg domain.WriterConfig) (Writer, error)
}

// WriterFactoryFunc adapts a function to WriterFactory.
type WriterFactoryFunc func(ctx context.Context, table string, cfg domain.WriterConfig) (Writer, error)

// NewWriter calls f.
func (f WriterFactoryFunc) NewWriter(ctx context.Context, table string, cfg domain.WriterConfig) (Writer, error) {
	return f(ctx, table, cfg)
}

// DefaultCopierConfig returns the write handle bounds used per copied entry.
func DefaultCopierConfig() domain.WriterConfig {
	return domain.WriterConfig{
		MaxMemory:       10_000_000,
		MaxLatency:      10 * time.Second,
		MaxWriteThreads: 5,
	}
}

// Copier writes single entries into a table.
type Copier struct {
	writers WriterFactory
	cfg     domain.WriterConfig
	logger  logger.Logger
	metrics *metric.Registry
}

// CopierOption configures a Copier.
type CopierOption func(*Copier)

// WithWriterConfig overrides the write handle bounds.
func WithWriterConfig(cfg domain.WriterConfig) CopierOption {
	return func(c *Copier) {
		c.cfg = cfg
	}
}

// WithLogger sets the copier's logger.
func WithLogger(l logger.Logger) CopierOption {
	return func(c *Copier) {
		c.logger = l
	}
}

// WithMetrics records copy counts and latency in reg.
func WithMetrics(reg *metric.Registry) CopierOption {
	return func(c *Copier) {
		c.metrics = reg
	}
}

// NewCopier creates a Copier that opens its write handles from writers.
func NewCopier(writers WriterFactory, opts ...CopierOption) *Copier {
	c := &Copier{
		writers: writers,
		cfg:     DefaultCopierConfig(),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the write handle bounds.
func (c *Copier) Config() domain.WriterConfig {
	return c.cfg
}

// Copy writes e into target and waits until the write is durable. Each call
// opens its own write handle and always closes it.
func (c *Copier) Copy(ctx context.Context, target string, e domain.Entry) error {
	start := time.Now()
	err := c.copy(ctx, target, e)
	if c.metrics != nil {
		c.metrics.TeeCopyDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.TeeCopyFailures.WithLabelValues(string(domain.ClassOf(err))).Inc()
		} else {
			c.metrics.TeeCopies.Inc()
		}
	}
	if err != nil {
		c.logger.Debug("tee copy failed",
			"target", target,
			"row", Escape(e.Key.Row),
			"error", err)
	}
	return err
}

func (c *Copier) copy(ctx context.Context, target string, e domain.Entry) (err error) {
	m, err := mutationFor(e)
	if err != nil {
		return err
	}

	w, err := c.writers.NewWriter(ctx, target, c.cfg)
	if err != nil {
		if domain.IsDomainError(err, "") {
			return err
		}
		return domain.ErrMutationRejected.WithDetailsf("open writer on %s", target).WithCause(err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			if !domain.IsWriteError(cerr) {
				cerr = domain.ErrWriterClose.WithDetails(target).WithCause(cerr)
			}
			if err == nil {
				err = cerr
			} else {
				err = multierror.Append(err, cerr)
			}
		}
	}()

	if aerr := w.AddMutation(m); aerr != nil {
		if !domain.IsWriteError(aerr) {
			aerr = domain.ErrMutationRejected.WithDetails(target).WithCause(aerr)
		}
		return aerr
	}
	return nil
}

// mutationFor builds the mutation that reproduces e. The visibility is
// parsed and serialized again.
func mutationFor(e domain.Entry) (*domain.Mutation, error) {
	k := e.Key
	expr, err := visibility.Parse(k.ColumnVisibility)
	if err != nil {
		return nil, domain.ErrBadVisibility.WithDetailsf("row %s", Escape(k.Row)).WithCause(err)
	}

	m := domain.NewMutation(k.Row)
	if k.Deleted {
		m.PutDelete(k.ColumnFamily, k.ColumnQualifier, expr.Bytes(), k.Timestamp, true)
		return m, nil
	}
	value := e.Value
	if value == nil {
		value = []byte{}
	}
	m.Put(k.ColumnFamily, k.ColumnQualifier, expr.Bytes(), k.Timestamp, value)
	return m, nil
}
