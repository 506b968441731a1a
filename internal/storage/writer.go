package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/hashicorp/go-multierror"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/pkg/visibility"
)

// BatchWriter buffers mutations for one table and writes them in batches.
// Buffered mutations are flushed when the buffer exceeds MaxMemory, when the
// oldest one has waited MaxLatency, and on Flush or Close.
type BatchWriter struct {
	store *Store
	ctx   context.Context
	table string
	id    string
	cfg   domain.WriterConfig

	// constrain rejects cells the session cannot see.
	constrain bool
	auths     visibility.Authorizations

	mu       sync.Mutex
	buf      []*domain.Mutation
	bufBytes int64
	oldest   time.Time
	closed   bool

	now func() time.Time
}

// NewBatchWriter opens a writer on table. Zero fields of cfg take their
// defaults.
func (s *Store) NewBatchWriter(ctx context.Context, table string, cfg domain.WriterConfig) (*BatchWriter, error) {
	def := domain.DefaultWriterConfig()
	if cfg.MaxMemory <= 0 {
		cfg.MaxMemory = def.MaxMemory
	}
	if cfg.MaxLatency <= 0 {
		cfg.MaxLatency = def.MaxLatency
	}
	if cfg.MaxWriteThreads <= 0 {
		cfg.MaxWriteThreads = def.MaxWriteThreads
	}

	id, err := s.TableID(ctx, table)
	if err != nil {
		return nil, err
	}
	constraint, _, err := s.Property(ctx, table, PropVisibilityConstraint)
	if err != nil {
		return nil, err
	}

	return &BatchWriter{
		store:     s,
		ctx:       ctx,
		table:     table,
		id:        id,
		cfg:       cfg,
		constrain: constraint == "true",
		auths:     s.Authorizations(),
		now:       time.Now,
	}, nil
}

// Table returns the name of the table written to.
func (w *BatchWriter) Table() string {
	return w.table
}

// AddMutation validates m and queues it for writing.
func (w *BatchWriter) AddMutation(m *domain.Mutation) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return domain.ErrWriterClosed
	}
	if err := w.validate(m); err != nil {
		return err
	}

	size := int64(m.Size())
	if len(w.buf) == 0 {
		w.oldest = w.now()
	}
	w.buf = append(w.buf, m)
	w.bufBytes += size

	if w.bufBytes >= w.cfg.MaxMemory || w.now().Sub(w.oldest) >= w.cfg.MaxLatency {
		return w.flushLocked()
	}
	return nil
}

func (w *BatchWriter) validate(m *domain.Mutation) error {
	if m == nil || len(m.Cells) == 0 {
		return domain.ErrEmptyMutation
	}
	if size := int64(m.Size()); size > w.cfg.MaxMemory {
		return domain.ErrMutationTooLarge.WithDetailsf("%d bytes exceeds buffer of %d", size, w.cfg.MaxMemory)
	}
	for _, c := range m.Cells {
		expr, err := visibility.Parse(c.Visibility)
		if err != nil {
			return domain.ErrMutationRejected.
				WithDetailsf("row %q", m.Row).
				WithCause(domain.ErrBadVisibility.WithCause(err))
		}
		if w.constrain && !expr.Evaluate(w.auths) {
			return domain.ErrMutationRejected.
				WithDetailsf("row %q", m.Row).
				WithCause(domain.ErrVisibilityDenied.WithDetailsf("visibility %q", c.Visibility))
		}
	}
	return nil
}

// Flush writes every buffered mutation.
func (w *BatchWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return domain.ErrWriterClosed
	}
	return w.flushLocked()
}

// Close flushes and releases the writer. Calling Close again is a no-op.
func (w *BatchWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.flushLocked(); err != nil {
		return domain.ErrWriterClose.WithDetails(w.table).WithCause(err)
	}
	return nil
}

func (w *BatchWriter) flushLocked() error {
	if len(w.buf) == 0 {
		return nil
	}
	pending := w.buf
	w.buf = nil
	w.bufBytes = 0

	if err := w.ctx.Err(); err != nil {
		return domain.ErrMutationRejected.WithDetails("flush cancelled").WithCause(err)
	}

	start := w.now()
	stamp := start.UnixMilli()

	var result *multierror.Error
	var puts []*domain.Mutation
	for _, m := range pending {
		if !hasDelete(m) {
			puts = append(puts, m)
			continue
		}
		if len(puts) > 0 {
			result = multierror.Append(result, w.writePuts(puts, stamp))
			puts = nil
		}
		result = multierror.Append(result, w.writeWithDeletes(m, stamp))
	}
	if len(puts) > 0 {
		result = multierror.Append(result, w.writePuts(puts, stamp))
	}

	if w.store.metrics != nil {
		w.store.metrics.WriterFlushes.Inc()
		w.store.metrics.MutationsWritten.Add(float64(len(pending)))
	}

	if err := result.ErrorOrNil(); err != nil {
		w.store.logger.Warn("batch flush failed",
			"table", w.table,
			"mutations", len(pending),
			"error", err)
		return domain.ErrMutationRejected.WithDetails(w.table).WithCause(err)
	}

	w.store.logger.Debug("batch flushed",
		"table", w.table,
		"mutations", len(pending),
		"elapsed", time.Since(start))
	return nil
}

func hasDelete(m *domain.Mutation) bool {
	for _, c := range m.Cells {
		if c.Deleted {
			return true
		}
	}
	return false
}

func cellKey(row []byte, c domain.Cell, stamp int64) domain.Key {
	ts := stamp
	if c.HasTimestamp {
		ts = c.Timestamp
	}
	return domain.Key{
		Row:              row,
		ColumnFamily:     c.Family,
		ColumnQualifier:  c.Qualifier,
		ColumnVisibility: c.Visibility,
		Timestamp:        ts,
	}
}

func (w *BatchWriter) writePuts(ms []*domain.Mutation, stamp int64) error {
	wb := w.store.db.NewWriteBatch()
	wb.SetMaxPendingTxns(w.cfg.MaxWriteThreads)
	defer wb.Cancel()

	for _, m := range ms {
		for _, c := range m.Cells {
			value := c.Value
			if value == nil {
				value = []byte{}
			}
			if err := wb.Set(dataKey(w.id, cellKey(m.Row, c, stamp)), value); err != nil {
				return err
			}
		}
	}
	return wb.Flush()
}

// writeWithDeletes applies one mutation atomically. A delete removes every
// version of its column at or below its timestamp, or every version when it
// has none.
func (w *BatchWriter) writeWithDeletes(m *domain.Mutation, stamp int64) error {
	return w.store.db.Update(func(txn *badger.Txn) error {
		for _, c := range m.Cells {
			if !c.Deleted {
				value := c.Value
				if value == nil {
					value = []byte{}
				}
				if err := txn.Set(dataKey(w.id, cellKey(m.Row, c, stamp)), value); err != nil {
					return err
				}
				continue
			}
			ts := int64(maxTimestamp)
			if c.HasTimestamp {
				ts = c.Timestamp
			}
			if err := deleteColumn(txn, columnPrefix(w.id, m.Row, c.Family, c.Qualifier, c.Visibility), ts); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteColumn(txn *badger.Txn, prefix []byte, upTo int64) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	start := append(append([]byte{}, prefix...), timestampBytes(upTo)...)
	for it.Seek(start); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
