// Package output renders listing command results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables built from structs, slices and maps
//   - json.go, yaml.go: machine-readable output
//   - spinner.go: activity indicator for long operations on a terminal
//
// Scan lines are not rendered here; they come from the table's formatter.
package output
