// Package command provides the tablesh application and its shell commands.
//
// The application is built with urfave/cli/v2:
//
//   - root.go: root app, global flags, config loading, session setup
//   - shell.go: the shell command set run for every REPL line
//   - table.go: table, tables, createtable, deletetable, config
//   - data.go: insert, delete, scan
//   - tee.go: tee
//   - auths.go: setauths, getauths, whoami
//   - system.go: compact, stats, version
//
// Shell commands take their cell arguments in the escaped display form
// (\xHH and \\) and report failures as domain errors; the REPL prints them
// and keeps reading.
package command
