package domain

import "time"

// Cell is one column update inside a Mutation.
type Cell struct {
	Family     []byte
	Qualifier  []byte
	Visibility []byte
	// Timestamp is only meaningful when HasTimestamp is set; otherwise the
	// store assigns the current time when the mutation is written.
	Timestamp    int64
	HasTimestamp bool
	Value        []byte
	Deleted      bool
}

// Mutation is a single-row write unit.
type Mutation struct {
	Row   []byte
	Cells []Cell
}

// NewMutation creates an empty mutation for row.
func NewMutation(row []byte) *Mutation {
	return &Mutation{Row: row}
}

// Put adds a cell with an explicit timestamp.
func (m *Mutation) Put(family, qualifier, visibility []byte, timestamp int64, value []byte) {
	m.Cells = append(m.Cells, Cell{
		Family:       family,
		Qualifier:    qualifier,
		Visibility:   visibility,
		Timestamp:    timestamp,
		HasTimestamp: true,
		Value:        value,
	})
}

// PutNow adds a cell stamped by the store at write time.
func (m *Mutation) PutNow(family, qualifier, visibility, value []byte) {
	m.Cells = append(m.Cells, Cell{
		Family:     family,
		Qualifier:  qualifier,
		Visibility: visibility,
		Value:      value,
	})
}

// PutDelete adds a delete marker. When hasTimestamp is false the marker
// removes every version of the column.
func (m *Mutation) PutDelete(family, qualifier, visibility []byte, timestamp int64, hasTimestamp bool) {
	m.Cells = append(m.Cells, Cell{
		Family:       family,
		Qualifier:    qualifier,
		Visibility:   visibility,
		Timestamp:    timestamp,
		HasTimestamp: hasTimestamp,
		Deleted:      true,
	})
}

// Size estimates the in-memory footprint of the mutation in bytes.
func (m *Mutation) Size() int {
	n := len(m.Row)
	for _, c := range m.Cells {
		// 8 bytes timestamp, 2 flags
		n += len(c.Family) + len(c.Qualifier) + len(c.Visibility) + len(c.Value) + 10
	}
	return n
}

// WriterConfig bounds a batch writer.
type WriterConfig struct {
	// MaxMemory is the buffer capacity in bytes before a flush is forced.
	MaxMemory int64
	// MaxLatency is the longest a buffered mutation may wait for a flush.
	MaxLatency time.Duration
	// MaxWriteThreads caps concurrently pending write transactions.
	MaxWriteThreads int
}

// DefaultWriterConfig returns the bounds used for general-purpose writers.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		MaxMemory:       50 << 20, // 50MB
		MaxLatency:      2 * time.Minute,
		MaxWriteThreads: 3,
	}
}
