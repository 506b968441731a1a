package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/telemetry/metric"
	"github.com/yndnr/tablesh/pkg/visibility"
)

func newTestWriter(t *testing.T, s *Store, table string, cfg domain.WriterConfig) *BatchWriter {
	t.Helper()
	w, err := s.NewBatchWriter(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("NewBatchWriter() error = %v", err)
	}
	return w
}

func put(row, cf, cq, vis string, ts int64, value string) *domain.Mutation {
	m := domain.NewMutation([]byte(row))
	m.Put([]byte(cf), []byte(cq), []byte(vis), ts, []byte(value))
	return m
}

func TestBatchWriter_Defaults(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	w := newTestWriter(t, s, "t", domain.WriterConfig{})
	defer w.Close()

	if w.cfg != domain.DefaultWriterConfig() {
		t.Errorf("cfg = %+v, want defaults", w.cfg)
	}
	if w.Table() != "t" {
		t.Errorf("Table() = %q, want t", w.Table())
	}
}

func TestBatchWriter_MissingTable(t *testing.T) {
	s := newTestStore(t)
	_, err := s.NewBatchWriter(context.Background(), "nope", domain.WriterConfig{})
	if !errors.Is(err, domain.ErrTableNotFound) {
		t.Errorf("NewBatchWriter() error = %v, want ErrTableNotFound", err)
	}
}

func TestBatchWriter_BufferedUntilClose(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	w := newTestWriter(t, s, "t", domain.WriterConfig{})

	if err := w.AddMutation(put("r", "f", "q", "", 1, "v")); err != nil {
		t.Fatal(err)
	}
	if got := scanAll(t, s, "t", ScanOptions{}); len(got) != 0 {
		t.Errorf("unflushed write visible: %d entries", len(got))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := scanAll(t, s, "t", ScanOptions{}); len(got) != 1 {
		t.Errorf("after Close got %d entries, want 1", len(got))
	}
}

func TestBatchWriter_FlushOnMemory(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	w := newTestWriter(t, s, "t", domain.WriterConfig{MaxMemory: 40})
	defer w.Close()

	// 1+1+1+0+5+10 = 18 bytes each
	for _, row := range []string{"a", "b", "c"} {
		if err := w.AddMutation(put(row, "f", "q", "", 1, "value")); err != nil {
			t.Fatal(err)
		}
	}
	if got := scanAll(t, s, "t", ScanOptions{}); len(got) != 3 {
		t.Errorf("got %d entries after memory flush, want 3", len(got))
	}
}

func TestBatchWriter_FlushOnLatency(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	w := newTestWriter(t, s, "t", domain.WriterConfig{MaxLatency: time.Second})
	defer w.Close()

	now := time.Unix(1000, 0)
	w.now = func() time.Time { return now }

	if err := w.AddMutation(put("a", "f", "q", "", 1, "v")); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Second)
	if err := w.AddMutation(put("b", "f", "q", "", 1, "v")); err != nil {
		t.Fatal(err)
	}
	if got := scanAll(t, s, "t", ScanOptions{}); len(got) != 2 {
		t.Errorf("got %d entries after latency flush, want 2", len(got))
	}
}

func TestBatchWriter_StampsMissingTimestamp(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	w := newTestWriter(t, s, "t", domain.WriterConfig{})
	w.now = func() time.Time { return time.UnixMilli(424242) }

	m := domain.NewMutation([]byte("r"))
	m.PutNow([]byte("f"), []byte("q"), nil, []byte("v"))
	if err := w.AddMutation(m); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got := scanAll(t, s, "t", ScanOptions{})
	if len(got) != 1 || got[0].Key.Timestamp != 424242 {
		t.Errorf("entries = %+v, want one stamped 424242", got)
	}
}

func TestBatchWriter_Rejects(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	w := newTestWriter(t, s, "t", domain.WriterConfig{MaxMemory: 64})
	defer w.Close()

	tests := []struct {
		name    string
		m       *domain.Mutation
		want    error
		isWrite bool
		isPerm  bool
	}{
		{"nil", nil, domain.ErrEmptyMutation, true, false},
		{"no cells", domain.NewMutation([]byte("r")), domain.ErrEmptyMutation, true, false},
		{"too large", put("r", "f", "q", "", 1, string(make([]byte, 100))), domain.ErrMutationTooLarge, true, false},
		{"bad visibility", put("r", "f", "q", "A&", 1, "v"), domain.ErrBadVisibility, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.AddMutation(tt.m)
			if !errors.Is(err, tt.want) {
				t.Fatalf("AddMutation() error = %v, want %v", err, tt.want)
			}
			if got := domain.IsWriteError(err); got != tt.isWrite {
				t.Errorf("IsWriteError() = %v, want %v", got, tt.isWrite)
			}
			if got := domain.IsPermissionError(err); got != tt.isPerm {
				t.Errorf("IsPermissionError() = %v, want %v", got, tt.isPerm)
			}
		})
	}
}

func TestBatchWriter_VisibilityConstraint(t *testing.T) {
	s := newTestStore(t, WithAuthorizations(visibility.NewAuthorizations("A")))
	ctx := context.Background()
	if err := s.CreateTable(ctx, "t"); err != nil {
		t.Fatal(err)
	}

	w := newTestWriter(t, s, "t", domain.WriterConfig{})
	if err := w.AddMutation(put("r", "f", "q", "B", 1, "v")); err != nil {
		t.Errorf("unconstrained table rejected write: %v", err)
	}
	w.Close()

	if err := s.SetProperty(ctx, "t", PropVisibilityConstraint, "true"); err != nil {
		t.Fatal(err)
	}
	w = newTestWriter(t, s, "t", domain.WriterConfig{})
	defer w.Close()

	err := w.AddMutation(put("r", "f", "q", "B", 1, "v"))
	if !errors.Is(err, domain.ErrVisibilityDenied) {
		t.Errorf("AddMutation() error = %v, want ErrVisibilityDenied", err)
	}
	if err := w.AddMutation(put("r", "f", "q", "A", 1, "v")); err != nil {
		t.Errorf("satisfiable visibility rejected: %v", err)
	}
}

func TestBatchWriter_Closed(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	w := newTestWriter(t, s, "t", domain.WriterConfig{})

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.AddMutation(put("r", "f", "q", "", 1, "v")); !errors.Is(err, domain.ErrWriterClosed) {
		t.Errorf("AddMutation() after Close error = %v, want ErrWriterClosed", err)
	}
	if err := w.Flush(); !errors.Is(err, domain.ErrWriterClosed) {
		t.Errorf("Flush() after Close error = %v, want ErrWriterClosed", err)
	}
}

func TestBatchWriter_CloseCancelled(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w, err := s.NewBatchWriter(ctx, "t", domain.WriterConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddMutation(put("r", "f", "q", "", 1, "v")); err != nil {
		t.Fatal(err)
	}

	cancel()
	err = w.Close()
	if !errors.Is(err, domain.ErrWriterClose) {
		t.Errorf("Close() error = %v, want ErrWriterClose", err)
	}
	if !domain.IsWriteError(err) {
		t.Error("close failure should be a write error")
	}
}

func TestBatchWriter_Deletes(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}
	writeCells(t, s, "t",
		cell{row: "r", cf: "f", cq: "q", ts: 1, value: "1"},
		cell{row: "r", cf: "f", cq: "q", ts: 2, value: "2"},
		cell{row: "r", cf: "f", cq: "q", ts: 3, value: "3"},
		cell{row: "r", cf: "f", cq: "other", ts: 1, value: "o"},
	)

	w := newTestWriter(t, s, "t", domain.WriterConfig{})
	m := domain.NewMutation([]byte("r"))
	m.PutDelete([]byte("f"), []byte("q"), nil, 2, true)
	if err := w.AddMutation(m); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	got := scanAll(t, s, "t", ScanOptions{})
	if cols := rows(got); !equalStrings(cols, []string{"r/f:other", "r/f:q"}) {
		t.Fatalf("after versioned delete = %v, want [r/f:other r/f:q]", cols)
	}
	if got[0].Key.Timestamp != 1 || got[1].Key.Timestamp != 3 {
		t.Errorf("after versioned delete timestamps = %d, %d, want 1, 3", got[0].Key.Timestamp, got[1].Key.Timestamp)
	}

	m = domain.NewMutation([]byte("r"))
	m.PutDelete([]byte("f"), []byte("q"), nil, 0, false)
	m.Put([]byte("f"), []byte("new"), nil, 7, []byte("n"))
	if err := w.AddMutation(m); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	want := []string{"r/f:new", "r/f:other"}
	if got := rows(scanAll(t, s, "t", ScanOptions{})); !equalStrings(got, want) {
		t.Errorf("after column delete = %v, want %v", got, want)
	}
}

func TestBatchWriter_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	s := newTestStore(t, WithMetrics(reg))
	if err := s.CreateTable(context.Background(), "t"); err != nil {
		t.Fatal(err)
	}

	w := newTestWriter(t, s, "t", domain.WriterConfig{})
	for _, row := range []string{"a", "b"} {
		if err := w.AddMutation(put(row, "f", "q", "", 1, "v")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	w.Close()

	if got := reg.Value("tablesh_writer_flushes_total", ""); got != 1 {
		t.Errorf("flushes = %v, want 1 (empty flushes are not counted)", got)
	}
	if got := reg.Value("tablesh_writer_mutations_total", ""); got != 2 {
		t.Errorf("mutations = %v, want 2", got)
	}
}
