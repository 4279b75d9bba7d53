// Package buildinfo carries build-time metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/oddsdesk/tipsterbot/core/buildinfo.Version=v1.2.3"
package buildinfo

var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "none"
	// Date is the UTC build timestamp.
	Date = "unknown"
)
