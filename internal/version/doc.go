// Package version exposes build metadata of the dgfx-setup binary.
//
// Version, Commit and BuildTime are injected through -ldflags and default to
// the module build info for local builds. The metadata is logged at startup and
// stored in every build record.
package version
