// Package manifest persists the package manifest of a setup run.
//
// The manifest names the distribution and maps every staged file to the
// base64 of its SHA-512 checksum. It is written as YAML next to the staged
// tree so later runs, and humans, can check what a package contains.
package manifest
