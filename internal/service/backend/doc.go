// Package backend turns a packaging configuration into a staged dgfx
// distribution.
//
// The native compile is delegated to the external cmake binary. The backend
// only drives it, filters the resulting file listing through the manifest
// hook, stages the python package and the surviving native files with
// checksum verification, and writes the package manifest and build record
// under the install directory.
package backend
