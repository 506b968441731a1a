package format

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yndnr/tablesh/internal/core/domain"
)

// sliceIterator serves entries from memory.
type sliceIterator struct {
	entries []domain.Entry
	pos     int
	removed []domain.Entry
	err     error // returned by Next at the end instead of ErrNoMoreEntries
}

func (it *sliceIterator) HasNext() bool {
	return it.pos < len(it.entries) || it.err != nil
}

func (it *sliceIterator) Next() (domain.Entry, error) {
	if it.pos >= len(it.entries) {
		if it.err != nil {
			return domain.Entry{}, it.err
		}
		return domain.Entry{}, domain.ErrNoMoreEntries
	}
	e := it.entries[it.pos]
	it.pos++
	return e, nil
}

func (it *sliceIterator) Remove() error {
	if it.pos == 0 {
		return domain.ErrIllegalRemove
	}
	it.removed = append(it.removed, it.entries[it.pos-1])
	return nil
}

func TestDefaultFormatter(t *testing.T) {
	it := &sliceIterator{entries: []domain.Entry{
		entry("r1", "cf", "cq", "", 5, "hi"),
		entry("r2", "cf", "cq", "A", 6, ""),
	}}
	f := NewDefaultFormatter()
	if err := f.Initialize(it, true); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	var lines []string
	for {
		ok, err := f.HasNext()
		if err != nil {
			t.Fatalf("HasNext() error = %v", err)
		}
		if !ok {
			break
		}
		line, err := f.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		lines = append(lines, line)
	}

	want := []string{"r1 cf:cq  5\thi", "r2 cf:cq A 6"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}

	if err := f.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(it.removed) != 1 || string(it.removed[0].Key.Row) != "r2" {
		t.Errorf("removed = %+v, want r2", it.removed)
	}
}

func TestDefaultFormatter_PropagatesIteratorError(t *testing.T) {
	boom := errors.New("scan failed")
	f := NewDefaultFormatter()
	if err := f.Initialize(&sliceIterator{err: boom}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want %v", err, boom)
	}
}

func TestFormatter_StateMachine(t *testing.T) {
	tee, err := NewTeeContext(context.Background(), "src", "dst", NewCopier(newFakeWriters()))
	if err != nil {
		t.Fatal(err)
	}

	formatters := map[string]func() Formatter{
		"default": func() Formatter { return NewDefaultFormatter() },
		"tee":     func() Formatter { return NewTeeFormatter(tee) },
	}

	for name, newFormatter := range formatters {
		t.Run(name+"/before initialize", func(t *testing.T) {
			f := newFormatter()
			if _, err := f.HasNext(); !domain.IsStateError(err) {
				t.Errorf("HasNext() error = %v, want state error", err)
			}
			if _, err := f.Next(); !domain.IsStateError(err) {
				t.Errorf("Next() error = %v, want state error", err)
			}
			if err := f.Remove(); !domain.IsStateError(err) {
				t.Errorf("Remove() error = %v, want state error", err)
			}
			if !errors.Is(f.Remove(), domain.ErrNotInitialized) {
				t.Error("Remove() should report ErrNotInitialized")
			}
		})

		t.Run(name+"/initialize twice", func(t *testing.T) {
			f := newFormatter()
			it := &sliceIterator{}
			if err := f.Initialize(it, false); err != nil {
				t.Fatalf("first Initialize() error = %v", err)
			}
			err := f.Initialize(it, true)
			if !errors.Is(err, domain.ErrAlreadyInitialized) || !domain.IsStateError(err) {
				t.Errorf("second Initialize() error = %v, want ErrAlreadyInitialized", err)
			}
			// The formatter stays usable.
			if ok, err := f.HasNext(); err != nil || ok {
				t.Errorf("HasNext() = %v, %v; want false, nil", ok, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tee, err := NewTeeContext(context.Background(), "src", "dst", NewCopier(newFakeWriters()))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		fmtName  string
		tee      *TeeContext
		wantType string
		wantErr  error
	}{
		{"empty selects default", "", nil, "*format.DefaultFormatter", nil},
		{"default", DefaultFormatterName, &tee, "*format.DefaultFormatter", nil},
		{"tee", TeeFormatterName, &tee, "*format.TeeFormatter", nil},
		{"tee without target", TeeFormatterName, nil, "", domain.ErrTeeTargetNotSet},
		{"unknown", "com.example.Nope", nil, "", domain.ErrUnknownFormatter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.fmtName, tt.tee)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				if !domain.IsConfigError(err) {
					t.Errorf("New() error %v should be a config error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := reflect.TypeOf(f).String(); got != tt.wantType {
				t.Errorf("New() type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	const name = "test.format.Upper"
	register(name, func(*TeeContext) (Formatter, error) {
		return NewDefaultFormatter(), nil
	})

	found := false
	for _, n := range Names() {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, missing %s", Names(), name)
	}
	if _, err := New(name, nil); err != nil {
		t.Errorf("New(%s) error = %v", name, err)
	}
}
