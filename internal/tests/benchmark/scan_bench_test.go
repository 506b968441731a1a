package benchmark

import (
	"context"
	"testing"

	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/storage"
)

func drainFormatter(b *testing.B, f format.Formatter) int {
	n := 0
	for {
		ok, err := f.HasNext()
		if err != nil {
			b.Fatalf("HasNext failed: %v", err)
		}
		if !ok {
			return n
		}
		if _, err := f.Next(); err != nil {
			b.Fatalf("Next failed: %v", err)
		}
		n++
	}
}

// BenchmarkScanDefault benchmarks a full scan through the default formatter.
func BenchmarkScanDefault(b *testing.B) {
	runWithEntryCounts(b, EntryCounts, func(b *testing.B, count int) {
		ctx := context.Background()
		s := newStore(b)
		prefillTable(ctx, b, s, "src", count)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			cursor, err := s.Scan(ctx, "src", storage.ScanOptions{})
			if err != nil {
				b.Fatalf("Scan failed: %v", err)
			}
			f := format.NewDefaultFormatter()
			if err := f.Initialize(cursor, true); err != nil {
				b.Fatal(err)
			}
			if n := drainFormatter(b, f); n != count {
				b.Fatalf("scanned %d entries, want %d", n, count)
			}
			cursor.Close()
		}

		b.StopTimer()
		reportMemory(b, "after")
	})
}

// BenchmarkScanTee benchmarks a full scan through the tee formatter, which
// opens and closes one write handle per displayed entry.
func BenchmarkScanTee(b *testing.B) {
	runWithEntryCounts(b, SmallEntryCounts, func(b *testing.B, count int) {
		ctx := context.Background()
		s := newStore(b)
		prefillTable(ctx, b, s, "src", count)
		if err := s.CreateTable(ctx, "mirror"); err != nil {
			b.Fatal(err)
		}
		copier := storeCopier(s)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			cursor, err := s.Scan(ctx, "src", storage.ScanOptions{})
			if err != nil {
				b.Fatalf("Scan failed: %v", err)
			}
			tc, err := format.NewTeeContext(ctx, "src", "mirror", copier)
			if err != nil {
				b.Fatal(err)
			}
			f := format.NewTeeFormatter(tc)
			if err := f.Initialize(cursor, true); err != nil {
				b.Fatal(err)
			}
			if n := drainFormatter(b, f); n != count {
				b.Fatalf("scanned %d entries, want %d", n, count)
			}
			cursor.Close()
		}
	})
}

// BenchmarkCopy benchmarks copying single entries.
func BenchmarkCopy(b *testing.B) {
	ctx := context.Background()
	s := newStore(b)
	if err := s.CreateTable(ctx, "mirror"); err != nil {
		b.Fatal(err)
	}
	copier := storeCopier(s)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := copier.Copy(ctx, "mirror", newEntry(i)); err != nil {
			b.Fatalf("Copy failed: %v", err)
		}
	}
}
