// Package version exposes the build version of the backoffice binary.
package version

// version is set at build time via
// -ldflags "-X github.com/rshade/backoffice/pkg/version.version=v1.2.3".
var version = "dev" //nolint:gochecknoglobals // Set by ldflags.

// GetVersion returns the build version, or "dev" for local builds.
func GetVersion() string {
	if version == "" {
		return "dev"
	}
	return version
}
