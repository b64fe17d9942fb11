// Package packaging holds the domain model of a dgfx setup run: the
// invocation as seen by the driver and the packaging configuration derived
// from it.
//
// The configuration carries exactly one Mode. BuildMode asks the backend to
// run the native CMake pass from a source directory; PackageMode asks it to
// skip that pass and filter the native file listing through a manifest hook.
package packaging
