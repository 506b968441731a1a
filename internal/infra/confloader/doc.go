// Package confloader loads layered configuration with koanf.
//
// Sources are applied lowest priority first:
//
//  1. Defaults, carried by the struct passed to Load
//  2. YAML configuration file
//  3. Environment variables (TABLESH_ prefix)
//  4. Overrides, normally taken from command-line flags
//
// Environment variables map to keys by stripping the prefix, lowercasing
// and turning a double underscore into a section separator, so
// TABLESH_LOG__LEVEL sets log.level and TABLESH_DATA_DIR sets data_dir.
//
// Watcher notifies callbacks when a watched file is rewritten.
package confloader
