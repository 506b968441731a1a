// Package service provides the shell-facing operations of tablesh.
//
// Services orchestrate the table store and the formatters. They depend on
// small interfaces for the store and the session so they can be tested
// against an in-memory store.
//
// This package contains:
//
//   - TeeService: the tee toggle, attaching or detaching the tee formatter
//   - ScanService: resolves a table's formatter and starts a formatted scan
//   - TableService: table lifecycle, properties and single-cell writes
package service
