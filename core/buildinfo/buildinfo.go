// Package buildinfo holds the viewsbot release stamp, set by the linker:
//
//	go build -ldflags "-X github.com/m3rciful/viewsbot/core/buildinfo.Version=$(git describe --tags) \
//	  -X github.com/m3rciful/viewsbot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/viewsbot/core/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/viewsbot
//
// The values appear on the startup log line.
package buildinfo

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// Commit is the short revision.
	Commit = "local"
	// Date is the RFC 3339 build time, empty when not stamped.
	Date = ""
)
