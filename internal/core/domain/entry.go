package domain

import "bytes"

// Key identifies one cell version in a table.
type Key struct {
	Row              []byte
	ColumnFamily     []byte
	ColumnQualifier  []byte
	ColumnVisibility []byte
	Timestamp        int64
	Deleted          bool
}

// Entry is a key/value record produced by a scan.
type Entry struct {
	Key   Key
	Value []byte
}

// Compare orders keys by row, family, qualifier and visibility ascending,
// then by timestamp descending. Deleted keys sort before live keys with
// the same coordinates.
func (k Key) Compare(o Key) int {
	if c := bytes.Compare(k.Row, o.Row); c != 0 {
		return c
	}
	if c := bytes.Compare(k.ColumnFamily, o.ColumnFamily); c != 0 {
		return c
	}
	if c := bytes.Compare(k.ColumnQualifier, o.ColumnQualifier); c != 0 {
		return c
	}
	if c := bytes.Compare(k.ColumnVisibility, o.ColumnVisibility); c != 0 {
		return c
	}
	switch {
	case k.Timestamp > o.Timestamp:
		return -1
	case k.Timestamp < o.Timestamp:
		return 1
	}
	switch {
	case k.Deleted && !o.Deleted:
		return -1
	case !k.Deleted && o.Deleted:
		return 1
	}
	return 0
}

// SameColumn reports whether both keys address the same row and column,
// ignoring timestamp and delete flag.
func (k Key) SameColumn(o Key) bool {
	return bytes.Equal(k.Row, o.Row) &&
		bytes.Equal(k.ColumnFamily, o.ColumnFamily) &&
		bytes.Equal(k.ColumnQualifier, o.ColumnQualifier) &&
		bytes.Equal(k.ColumnVisibility, o.ColumnVisibility)
}

// Range bounds a scan by row. Nil bounds are unbounded; both bounds are
// inclusive.
type Range struct {
	StartRow []byte
	EndRow   []byte
}

// ContainsRow reports whether row falls inside the range.
func (r Range) ContainsRow(row []byte) bool {
	if r.StartRow != nil && bytes.Compare(row, r.StartRow) < 0 {
		return false
	}
	if r.EndRow != nil && bytes.Compare(row, r.EndRow) > 0 {
		return false
	}
	return true
}

// AfterEnd reports whether row sorts past the end of the range.
func (r Range) AfterEnd(row []byte) bool {
	return r.EndRow != nil && bytes.Compare(row, r.EndRow) > 0
}
