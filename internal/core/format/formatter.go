package format

import (
	"sort"
	"sync"

	"github.com/yndnr/tablesh/internal/core/domain"
)

// Formatter names stored in a table's formatter property.
const (
	DefaultFormatterName = "tablesh.format.DefaultFormatter"
	TeeFormatterName     = "tablesh.format.TeeFormatter"
)

// EntryIterator is the entry sequence of a scan.
type EntryIterator interface {
	HasNext() bool
	Next() (domain.Entry, error)
	Remove() error
}

// Formatter turns the entries of one scan into display lines. A Formatter
// is initialized exactly once; every other method fails with a state error
// before that.
type Formatter interface {
	Initialize(entries EntryIterator, showTimestamps bool) error
	HasNext() (bool, error)
	Next() (string, error)
	Remove() error
}

type lifecycle int

const (
	uninitialized lifecycle = iota
	active
)

// DefaultFormatter renders each entry with Render.
type DefaultFormatter struct {
	state          lifecycle
	entries        EntryIterator
	showTimestamps bool
}

// NewDefaultFormatter creates an uninitialized DefaultFormatter.
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// Initialize binds the formatter to a scan.
func (f *DefaultFormatter) Initialize(entries EntryIterator, showTimestamps bool) error {
	if f.state != uninitialized {
		return domain.ErrAlreadyInitialized
	}
	f.entries = entries
	f.showTimestamps = showTimestamps
	f.state = active
	return nil
}

// HasNext reports whether the scan has more entries.
func (f *DefaultFormatter) HasNext() (bool, error) {
	if f.state != active {
		return false, domain.ErrNotInitialized
	}
	return f.entries.HasNext(), nil
}

// Next renders the next entry.
func (f *DefaultFormatter) Next() (string, error) {
	if f.state != active {
		return "", domain.ErrNotInitialized
	}
	e, err := f.entries.Next()
	if err != nil {
		return "", err
	}
	return Render(e, f.showTimestamps), nil
}

// Remove removes the last entry from the scanned table.
func (f *DefaultFormatter) Remove() error {
	if f.state != active {
		return domain.ErrNotInitialized
	}
	return f.entries.Remove()
}

// Factory creates a formatter. tee is nil when the session has no tee
// target.
type Factory func(tee *TeeContext) (Formatter, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		DefaultFormatterName: func(*TeeContext) (Formatter, error) {
			return NewDefaultFormatter(), nil
		},
		TeeFormatterName: func(tee *TeeContext) (Formatter, error) {
			if tee == nil {
				return nil, domain.ErrTeeTargetNotSet
			}
			return NewTeeFormatter(*tee), nil
		},
	}
)

// register makes a formatter available under name, replacing any previous
// registration.
func register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Names returns the registered formatter names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New creates the formatter registered under name. An empty name selects
// the default formatter.
func New(name string, tee *TeeContext) (Formatter, error) {
	if name == "" {
		name = DefaultFormatterName
	}
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, domain.ErrUnknownFormatter.WithDetails(name)
	}
	return f(tee)
}
