// Package benchmark provides performance benchmarks for tablesh.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare the default and tee formatters:
//
//	go test -bench=BenchmarkScan -benchmem -benchtime=5s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
