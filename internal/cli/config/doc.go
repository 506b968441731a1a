// Package config defines the tablesh shell configuration.
//
//   - spec.go: CLIConfig and its defaults (~/.tablesh/config.yaml)
//   - loader.go: layered loading through confloader, validation and saving
package config
