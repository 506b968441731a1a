// Package metric provides Prometheus metrics for tablesh.
//
// The shell keeps a private registry rather than the global one so that
// several sessions (and tests) can coexist. The `stats` command reads the
// registry back through Snapshot.
package metric
