// Package logger provides structured logging for tablesh.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: construction, level control and the package default
//   - context.go: carrying a logger and a command id through context
//   - redact.go: masking of credential-like attributes
//
// The shell logs to stderr so that scan output on stdout stays clean.
package logger
