package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and rejected values.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Empty settings get defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultCMake, cfg.CMake)
	require.Equal(t, DefaultBuildType, cfg.BuildType)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)

	// Unknown build type.
	require.ErrorIs(t, Validate(&Config{BuildType: "Fast"}), errUnknownBuildType)

	// Negative jobs.
	require.ErrorIs(t, Validate(&Config{Jobs: -1}), errNegativeJobs)

	// Unknown log level.
	require.ErrorIs(t, Validate(&Config{LogLevel: "loud"}), errUnknownLogLevel)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dgfx-setup.yaml")

	settings := &Config{
		CMake:     "/opt/cmake/bin/cmake",
		Generator: "Ninja",
		BuildType: "Debug",
		Jobs:      4,
		Defines:   map[string]string{"DGFX_WITH_VULKAN": "ON"},
		LogLevel:  "debug",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadPartialFileKeepsDefaults ensures omitted keys fall back to defaults.
func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dgfx-setup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator: Ninja\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Ninja", cfg.Generator)
	require.Equal(t, DefaultCMake, cfg.CMake)
	require.Equal(t, DefaultBuildType, cfg.BuildType)
}

// TestLoadOrDefault returns defaults only for a missing file.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("jobs: [\n"), 0o600))

	_, err = LoadOrDefault(broken)
	require.Error(t, err)
}

// TestPath honors the override variable.
func TestPath(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	require.Equal(t, DefaultConfigFilename, Path())

	t.Setenv(ConfigPathEnv, "/etc/dgfx-setup.yaml")
	require.Equal(t, "/etc/dgfx-setup.yaml", Path())
}
