// Package version carries the release tag, set at build time with
// -ldflags "-X github.com/rkirkendall/prompt-perfect/internal/version.Version=v1.2.3".
package version

var Version = "dev"
