// Package config defines the settings of the setup driver and helpers to
// load, validate and save them in YAML format.
//
// The settings file is optional. When it is absent the driver runs with
// Default(), which invokes "cmake" from PATH with a Release build type.
package config
