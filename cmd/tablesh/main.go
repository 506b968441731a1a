// Package main provides the entry point for tablesh.
//
// tablesh opens an embedded sorted-table store and runs either the
// interactive shell, a single command (-e or exec), or a script (-f).
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/tablesh/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
