// Package repl provides the interactive tablesh shell loop.
//
//   - repl.go: prompt loop, line splitting and dispatch
//   - completer.go: tab completion for commands, table names and tee modes
//   - history.go: command history persistence
//
// On a terminal the loop uses liner for line editing; otherwise it reads
// plain lines, which keeps piped scripts working.
package repl
