package co

import "golang.org/x/mod/semver"

// version is the runtime's own semantic version tag, validated with
// golang.org/x/mod/semver rather than hand-rolled parsing.
const version = "v0.1.0"

func init() {
	if !semver.IsValid(version) {
		panic("co: invalid built-in version tag " + version)
	}
}

// Version reports the runtime's semantic version, e.g. "v0.1.0".
func Version() string {
	return version
}

// VersionAtLeast reports whether the runtime's version is at least want,
// using golang.org/x/mod/semver's comparison rules (so "v0.2.0" > "v0.1.9").
func VersionAtLeast(want string) bool {
	return semver.IsValid(want) && semver.Compare(version, want) >= 0
}
