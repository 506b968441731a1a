// Package domain defines the core domain models for tablesh.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Key, Entry and Range: records produced by table scans
//   - Mutation and WriterConfig: single-row write units and writer bounds
//   - Errors: the error taxonomy shared by the store, formatters and shell
//
// Errors carry a code of the form TS-<CLASS>-<NUMBER>. The class tells the
// caller how to react: STATE for lifecycle misuse, CONF and USAG for setup
// problems, PERM for visibility failures, WRIT for rejected writes and STOR
// for backing store failures.
package domain
