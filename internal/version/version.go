// Package version provides centralized version information for the sentinel.
// Follows semantic versioning (semver) conventions.
package version

// SentinelVersion holds the current ceph-sentinel version.
// Format: major.minor.patch[-prerelease][+build]
const SentinelVersion = "0.1.0-dev"
