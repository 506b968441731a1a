// Package buildinfo reports the tablesh build.
//
// Version, commit and build time are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/tablesh/internal/infra/buildinfo.Version=v0.3.0" ./cmd/tablesh
//
// Unset values fall back to what the Go toolchain embedded in the binary.
package buildinfo
