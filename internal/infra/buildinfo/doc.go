// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/filegate/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/yndnr/filegate/internal/infra/buildinfo.Commit=abc123"
//
// When ldflags are absent, the commit and Go version fall back to what
// the toolchain records in the binary.
package buildinfo
