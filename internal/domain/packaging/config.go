package packaging

const (
	// PackageName is the distribution name of the native extension.
	PackageName = "dgfx"
	// Version is the distribution version.
	Version = "1.0"
	// WrapperPackage is the python package shipped next to the native library.
	WrapperPackage = "dgfxpy"
	// InstallDir is the staging directory, relative to the working directory.
	InstallDir = "build"
	// NativeSourceDir is the CMake source root used by a build pass.
	NativeSourceDir = "."
)

// ManifestHook transforms the listing of native files before it is packaged.
type ManifestHook func(listing []string) []string

// EmptyManifest drops every file from the listing.
func EmptyManifest([]string) []string {
	return []string{}
}

// Mode is the invocation-dependent half of a Config.
// It is either BuildMode or PackageMode; no other implementations exist.
type Mode interface {
	// Name returns a short identifier used in logs and records.
	Name() string

	isMode()
}

// BuildMode requests the native CMake pass rooted at SourceDir.
type BuildMode struct {
	SourceDir string
}

// Name implements Mode.
func (BuildMode) Name() string { return "build" }

func (BuildMode) isMode() {}

// PackageMode skips the native pass and filters the native listing with Hook.
type PackageMode struct {
	Hook ManifestHook
}

// Name implements Mode.
func (PackageMode) Name() string { return "package" }

func (PackageMode) isMode() {}

// Config is the packaging configuration handed to the backend.
// It is built once per run and never mutated afterwards.
type Config struct {
	PackageName string
	Version     string
	Packages    []string
	InstallDir  string
	Mode        Mode
}

// Decide derives the packaging configuration from the invocation.
func Decide(inv *InvocationContext) *Config {
	cfg := &Config{
		PackageName: PackageName,
		Version:     Version,
		Packages:    []string{WrapperPackage},
		InstallDir:  InstallDir,
	}

	if inv != nil && inv.IsBuildPass {
		cfg.Mode = BuildMode{SourceDir: NativeSourceDir}
	} else {
		cfg.Mode = PackageMode{Hook: EmptyManifest}
	}

	return cfg
}

// NativeSourceDir returns the CMake source directory when the run is a build pass.
func (c *Config) NativeSourceDir() (string, bool) {
	if m, ok := c.Mode.(BuildMode); ok {
		return m.SourceDir, true
	}

	return "", false
}

// ManifestHook returns the listing filter when the run is not a build pass.
func (c *Config) ManifestHook() (ManifestHook, bool) {
	if m, ok := c.Mode.(PackageMode); ok && m.Hook != nil {
		return m.Hook, true
	}

	return nil, false
}

// ModeName returns the name of the configured mode, or "none".
func (c *Config) ModeName() string {
	if c.Mode == nil {
		return "none"
	}

	return c.Mode.Name()
}
