package storage

import (
	"context"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/pkg/visibility"
)

// ScanOptions narrows a scan.
type ScanOptions struct {
	// Range bounds the rows returned.
	Range domain.Range

	// Families restricts the scan to these column families. Empty means all.
	Families [][]byte

	// Authorizations are the labels used to filter entries. Nil means the
	// session's authorizations. They must be a subset of the session's.
	Authorizations *visibility.Authorizations
}

// Cursor is a pull iterator over a consistent snapshot of one table.
// It is not safe for concurrent use.
type Cursor struct {
	store  *Store
	ctx    context.Context
	table  string
	id     string
	prefix []byte

	txn *badger.Txn
	it  *badger.Iterator

	rng      domain.Range
	families map[string]struct{}
	auths    visibility.Authorizations
	visible  map[string]bool

	pending *domain.Entry
	last    *domain.Entry
	err     error
	done    bool
	closed  bool
}

// Scan opens a cursor over table. The caller must Close it.
func (s *Store) Scan(ctx context.Context, table string, opts ScanOptions) (*Cursor, error) {
	auths := s.Authorizations()
	if opts.Authorizations != nil {
		for _, l := range opts.Authorizations.Labels() {
			if !auths.Contains([]byte(l)) {
				return nil, domain.ErrVisibilityDenied.WithDetailsf("scan authorization %q not held by session", l)
			}
		}
		auths = *opts.Authorizations
	}

	txn := s.db.NewTransaction(false)
	id, err := lookupTableID(txn, table)
	if err != nil {
		txn.Discard()
		return nil, err
	}

	prefix := dataTablePrefix(id)
	iopts := badger.DefaultIteratorOptions
	iopts.Prefix = prefix
	it := txn.NewIterator(iopts)

	start := prefix
	if opts.Range.StartRow != nil {
		start = appendEscaped(append([]byte{}, prefix...), opts.Range.StartRow)
	}
	it.Seek(start)

	var families map[string]struct{}
	if len(opts.Families) > 0 {
		families = make(map[string]struct{}, len(opts.Families))
		for _, f := range opts.Families {
			families[string(f)] = struct{}{}
		}
	}

	s.logger.Debug("scan opened", "table", table, "authorizations", auths.String())

	return &Cursor{
		store:    s,
		ctx:      ctx,
		table:    table,
		id:       id,
		prefix:   prefix,
		txn:      txn,
		it:       it,
		rng:      opts.Range,
		families: families,
		auths:    auths,
		visible:  make(map[string]bool),
	}, nil
}

// Table returns the name of the scanned table.
func (c *Cursor) Table() string {
	return c.table
}

// HasNext reports whether Next will return an entry or an error.
func (c *Cursor) HasNext() bool {
	if c.closed {
		return false
	}
	if c.pending == nil && c.err == nil && !c.done {
		c.fill()
	}
	return c.pending != nil || c.err != nil
}

// Next returns the next visible entry.
func (c *Cursor) Next() (domain.Entry, error) {
	if c.closed {
		return domain.Entry{}, domain.ErrCursorClosed
	}
	if !c.HasNext() {
		return domain.Entry{}, domain.ErrNoMoreEntries
	}
	if c.err != nil {
		return domain.Entry{}, c.err
	}

	e := *c.pending
	c.pending = nil
	c.last = &e
	if c.store.metrics != nil {
		c.store.metrics.ScanEntries.Inc()
	}
	return e, nil
}

// Remove deletes the entry most recently returned by Next from the table.
// The cursor's snapshot is unaffected.
func (c *Cursor) Remove() error {
	if c.closed {
		return domain.ErrCursorClosed
	}
	if c.last == nil {
		return domain.ErrIllegalRemove
	}
	k := dataKey(c.id, c.last.Key)
	err := c.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if err != nil {
		return domain.ErrStorage.WithDetails("remove entry").WithCause(err)
	}
	c.last = nil
	return nil
}

// Close releases the snapshot. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.pending = nil
	c.it.Close()
	c.txn.Discard()
	return nil
}

// fill advances the iterator to the next entry passing the range, family
// and visibility filters.
func (c *Cursor) fill() {
	for ; c.it.Valid(); c.it.Next() {
		if err := c.ctx.Err(); err != nil {
			c.err = err
			return
		}

		item := c.it.Item()
		key, err := decodeKey(item.Key()[len(c.prefix):])
		if err != nil {
			c.err = err
			return
		}
		if c.rng.AfterEnd(key.Row) {
			break
		}
		if c.families != nil {
			if _, ok := c.families[string(key.ColumnFamily)]; !ok {
				continue
			}
		}
		if !c.isVisible(key.ColumnVisibility) {
			continue
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			c.err = domain.ErrStorage.WithCause(err)
			return
		}
		c.pending = &domain.Entry{Key: key, Value: value}
		c.it.Next()
		return
	}
	c.done = true
}

func (c *Cursor) isVisible(vis []byte) bool {
	if v, ok := c.visible[string(vis)]; ok {
		return v
	}
	ok := false
	if expr, err := visibility.Parse(vis); err == nil {
		ok = expr.Evaluate(c.auths)
	}
	c.visible[string(vis)] = ok
	return ok
}
