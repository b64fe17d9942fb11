package backend

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oshokin/dgfx-setup/internal/buildsys/cmake"
	"github.com/oshokin/dgfx-setup/internal/config"
	"github.com/oshokin/dgfx-setup/internal/domain/packaging"
	"github.com/oshokin/dgfx-setup/internal/logger"
	"github.com/oshokin/dgfx-setup/internal/repository/manifest"
	"github.com/oshokin/dgfx-setup/internal/repository/record"
	"github.com/oshokin/dgfx-setup/internal/version"
)

const (
	// CMakeBuildDir is the cmake binary tree inside the install directory.
	CMakeBuildDir = "cmake-build"
	// CMakeInstallDir is the cmake install prefix inside the install directory.
	CMakeInstallDir = "cmake-install"
	// StageDir holds the files of the distribution inside the install directory.
	StageDir = "stage"
)

// Backend packages a distribution described by a packaging configuration.
type Backend interface {
	// Package runs the backend. args are the untouched invocation arguments.
	Package(ctx context.Context, cfg *packaging.Config, args []string) error
}

// Stager is the Backend used by the CLI.
type Stager struct {
	settings *config.Config
	root     string
	runner   cmake.Runner
}

var _ Backend = (*Stager)(nil)

// Option configures a Stager.
type Option func(*Stager)

// WithRunner replaces the runner used for cmake commands.
func WithRunner(r cmake.Runner) Option {
	return func(s *Stager) {
		s.runner = r
	}
}

// WithRoot sets the project root that relative paths resolve against.
func WithRoot(dir string) Option {
	return func(s *Stager) {
		s.root = dir
	}
}

// NewStager creates a Stager. Nil settings mean config.Default().
func NewStager(settings *config.Config, opts ...Option) *Stager {
	if settings == nil {
		settings = config.Default()
	}

	s := &Stager{
		settings: settings,
		root:     ".",
		runner:   cmake.ExecRunner{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Package implements Backend.
func (s *Stager) Package(ctx context.Context, cfg *packaging.Config, args []string) error {
	ctx = logger.WithName(ctx, "backend")
	ctx = logger.WithKV(ctx, "mode", cfg.ModeName())

	parsed, err := parseArguments(args)
	if err != nil {
		return fmt.Errorf("parse backend arguments: %w", err)
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	installDir := filepath.Join(root, cfg.InstallDir)
	if err = os.MkdirAll(installDir, 0o755); err != nil {
		return fmt.Errorf("create install dir: %w", err)
	}

	release, err := acquireMarker(ctx, filepath.Join(installDir, MarkerFilename))
	if err != nil {
		return err
	}

	defer release()

	if err = s.buildNative(ctx, cfg, parsed, root, installDir); err != nil {
		return err
	}

	listing, err := listTree(filepath.Join(installDir, CMakeInstallDir))
	if err != nil {
		return err
	}

	if hook, ok := cfg.ManifestHook(); ok {
		kept := hook(listing)
		logger.InfoKV(ctx, "Applied manifest hook", "listed", len(listing), "kept", len(kept))
		listing = kept
	}

	staged, err := s.stage(ctx, cfg, root, installDir, listing)
	if err != nil {
		return err
	}

	manifestRepo := manifest.NewFileRepository(
		filepath.Join(installDir, manifest.Filename(cfg.PackageName, cfg.Version)),
	)
	if err = manifestRepo.Save(staged); err != nil {
		return err
	}

	rec := record.New(cfg.ModeName(), args)
	rec.InstallDir = cfg.InstallDir
	rec.Files = staged.Paths()
	rec.ToolVersion = version.Short()

	if err = record.NewFileRepository(filepath.Join(installDir, record.DefaultFilename)).Save(rec); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Distribution staged",
		"name", cfg.PackageName,
		"version", cfg.Version,
		"files", len(rec.Files),
		"manifest", manifestRepo.Path())

	return nil
}

// buildNative runs configure, build and install when the configuration asks for a native pass.
func (s *Stager) buildNative(
	ctx context.Context,
	cfg *packaging.Config,
	parsed *arguments,
	root, installDir string,
) error {
	sourceDir, ok := cfg.NativeSourceDir()
	if !ok {
		logger.Debug(ctx, "No native source directory, cmake is not invoked")
		return nil
	}

	if parsed.skipCMake {
		logger.Info(ctx, "Skipping cmake, reusing the previous install tree")
		return nil
	}

	buildType := firstNonEmpty(parsed.buildType, s.settings.BuildType)
	generator := firstNonEmpty(parsed.generator, s.settings.Generator)

	jobs := s.settings.Jobs
	if parsed.jobs > 0 {
		jobs = parsed.jobs
	}

	// The relative TEMP and TMP only hold when root is the working directory.
	c := cmake.New(s.settings.CMake).
		WithRunner(s.runner).
		Source(filepath.Join(root, sourceDir)).
		BuildDir(filepath.Join(installDir, CMakeBuildDir)).
		InstallDir(filepath.Join(installDir, CMakeInstallDir)).
		Generator(generator).
		BuildType(buildType).
		Jobs(jobs).
		Env("TEMP", installDir).
		Env("TMP", installDir)

	for key, value := range s.settings.Defines {
		c.Define(key, value)
	}

	logger.InfoKV(ctx, "Configuring native build", "source", sourceDir, "build_type", buildType)

	if err := c.Configure(ctx, parsed.cmakeArgs...); err != nil {
		return fmt.Errorf("cmake configure: %w", err)
	}

	logger.Info(ctx, "Building native library")

	if err := c.Build(ctx); err != nil {
		return fmt.Errorf("cmake build: %w", err)
	}

	logger.InfoKV(ctx, "Installing native library", "prefix", c.OutputDir())

	if err := c.Install(ctx); err != nil {
		return fmt.Errorf("cmake install: %w", err)
	}

	return nil
}

// stage recreates the stage directory with the package modules and the native listing.
func (s *Stager) stage(
	ctx context.Context,
	cfg *packaging.Config,
	root, installDir string,
	listing []string,
) (*manifest.Manifest, error) {
	stageDir := filepath.Join(installDir, StageDir)
	if err := os.RemoveAll(stageDir); err != nil {
		return nil, fmt.Errorf("clean stage dir: %w", err)
	}

	m := manifest.New(cfg.PackageName, cfg.Version, cfg.Packages)
	m.Mode = cfg.ModeName()

	if sourceDir, ok := cfg.NativeSourceDir(); ok {
		m.NativeSourceDir = sourceDir
	}

	add := func(src, rel string) error {
		checksum, err := stageFile(src, filepath.Join(stageDir, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}

		m.AddFile(rel, checksum)
		logger.DebugKV(ctx, "Staged file", "path", rel)

		return nil
	}

	for _, pkg := range cfg.Packages {
		dir := packageDir(root, pkg)

		modules, err := packageModules(dir)
		if err != nil {
			return nil, err
		}

		pkgPath := strings.ReplaceAll(pkg, ".", "/")
		for _, module := range modules {
			if err = add(filepath.Join(dir, module), path.Join(pkgPath, module)); err != nil {
				return nil, err
			}
		}
	}

	nativeRoot := filepath.Join(installDir, CMakeInstallDir)
	for _, rel := range listing {
		if err := add(filepath.Join(nativeRoot, filepath.FromSlash(rel)), rel); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
