package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/dgfx-setup/internal/logger"
)

// Config holds the tunables of the native build pass.
type Config struct {
	// CMake is the cmake executable, a name looked up in PATH or a path.
	CMake string `yaml:"cmake"`
	// Generator is the CMake generator; empty lets cmake pick its default.
	Generator string `yaml:"generator,omitempty"`
	// BuildType is passed as CMAKE_BUILD_TYPE.
	BuildType string `yaml:"build_type"`
	// Jobs limits parallel build jobs; zero leaves the choice to the generator.
	Jobs int `yaml:"jobs,omitempty"`
	// Defines are extra -D cache entries for the configure step.
	Defines map[string]string `yaml:"defines,omitempty"`
	// LogLevel is the driver log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the working directory.
	DefaultConfigFilename = "dgfx-setup.yaml"

	// ConfigPathEnv overrides the settings file location.
	ConfigPathEnv = "DGFX_SETUP_CONFIG"

	// LogLevelEnv overrides the log level from the settings file.
	LogLevelEnv = "DGFX_SETUP_LOG_LEVEL"

	// DefaultCMake is the cmake executable used when none is configured.
	DefaultCMake = "cmake"

	// DefaultBuildType is the CMake build type used when none is configured.
	DefaultBuildType = "Release"

	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the permission of written settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownBuildType is returned for build types cmake does not define.
	errUnknownBuildType = errors.New("unknown build type")
	// errNegativeJobs is returned when jobs is below zero.
	errNegativeJobs = errors.New("jobs must not be negative")
	// errUnknownLogLevel is returned for unparsable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// BuildTypes lists the build types understood by single-config CMake generators.
func BuildTypes() []string {
	return []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		CMake:     DefaultCMake,
		BuildType: DefaultBuildType,
		LogLevel:  DefaultLogLevel,
	}
}

// Path returns the settings path from ConfigPathEnv or DefaultConfigFilename.
func Path() string {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return path
	}

	return DefaultConfigFilename
}

// Load reads settings from path and validates them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default() when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes settings to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.CMake == "" {
		cfg.CMake = DefaultCMake
	}

	if cfg.BuildType == "" {
		cfg.BuildType = DefaultBuildType
	}

	if !slices.Contains(BuildTypes(), cfg.BuildType) {
		return fmt.Errorf("%w: %s", errUnknownBuildType, cfg.BuildType)
	}

	if cfg.Jobs < 0 {
		return errNegativeJobs
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %s", errUnknownLogLevel, cfg.LogLevel)
	}

	return nil
}
