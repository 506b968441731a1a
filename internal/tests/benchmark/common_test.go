package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/storage"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
	"github.com/yndnr/tablesh/pkg/visibility"
)

// EntryCounts defines the table sizes for benchmarking.
var EntryCounts = []int{1000, 10000, 100000}

// SmallEntryCounts for quick benchmarks and the per-entry tee path.
var SmallEntryCounts = []int{100, 1000}

// newStore opens an in-memory store holding the labels A and B.
func newStore(b *testing.B) *storage.Store {
	b.Helper()
	s, err := storage.Open(storage.InMemoryConfig(), logger.Discard(),
		storage.WithAuthorizations(visibility.NewAuthorizations("A", "B")))
	if err != nil {
		b.Fatalf("Failed to open store: %v", err)
	}
	b.Cleanup(func() { s.Close() })
	return s
}

// newEntry builds the i-th benchmark entry.
func newEntry(i int) domain.Entry {
	vis := []byte("A")
	if i%2 == 1 {
		vis = []byte("A&(B|C)")
	}
	return domain.Entry{
		Key: domain.Key{
			Row:              []byte(fmt.Sprintf("row-%08d", i)),
			ColumnFamily:     []byte("cf"),
			ColumnQualifier:  []byte{'q', byte(i % 7)},
			ColumnVisibility: vis,
			Timestamp:        int64(1700000000000 + i),
		},
		Value: []byte(fmt.Sprintf("value-%d\tpayload", i)),
	}
}

// prefillTable creates table and writes count entries into it.
func prefillTable(ctx context.Context, b *testing.B, s *storage.Store, table string, count int) {
	b.Helper()
	if err := s.CreateTable(ctx, table); err != nil {
		b.Fatalf("Failed to create table: %v", err)
	}
	w, err := s.NewBatchWriter(ctx, table, domain.DefaultWriterConfig())
	if err != nil {
		b.Fatalf("Failed to create writer: %v", err)
	}
	for i := 0; i < count; i++ {
		e := newEntry(i)
		m := domain.NewMutation(e.Key.Row)
		m.Put(e.Key.ColumnFamily, e.Key.ColumnQualifier, e.Key.ColumnVisibility, e.Key.Timestamp, e.Value)
		if err := w.AddMutation(m); err != nil {
			b.Fatalf("AddMutation failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		b.Fatalf("Close failed: %v", err)
	}
}

// storeCopier returns a copier writing through s.
func storeCopier(s *storage.Store) *format.Copier {
	return format.NewCopier(format.WriterFactoryFunc(
		func(ctx context.Context, table string, cfg domain.WriterConfig) (format.Writer, error) {
			w, err := s.NewBatchWriter(ctx, table, cfg)
			if err != nil {
				return nil, err
			}
			return w, nil
		}))
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithEntryCounts runs a benchmark function with various table sizes.
func runWithEntryCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("entries_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
