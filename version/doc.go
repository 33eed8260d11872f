// Package version reports build information for pubqueue binaries.
//
// Version, git commit, branch and build time are set at compile time via
// -ldflags; anything left unset is filled from the module build info:
//
//	go build -ldflags "-X github.com/kbukum/pubqueue/version.Version=1.0.0" ./cmd/pubqueue-bench
package version
