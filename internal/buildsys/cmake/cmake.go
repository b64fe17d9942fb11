// Package cmake drives the external cmake CLI through the configure, build
// and install steps of a native project.
package cmake

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/oshokin/dgfx-setup/internal/logger"
)

// Runner executes a command. A nil env inherits the process environment.
type Runner interface {
	Run(ctx context.Context, name string, args, env []string) error
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner. The *exec.ExitError of a failed command is returned as is.
func (r ExecRunner) Run(ctx context.Context, name string, args, env []string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	cmd.Env = env

	return cmd.Run()
}

type define struct {
	value    string
	typeName string
}

// CMake holds the settings of one native build and runs its steps.
type CMake struct {
	binary     string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	jobs       int
	defines    map[string]define
	env        map[string]string
	runner     Runner
}

// New creates a helper that invokes binary, "cmake" when empty.
func New(binary string) *CMake {
	if binary == "" {
		binary = "cmake"
	}

	return &CMake{
		binary:    binary,
		sourceDir: ".",
		buildDir:  "build",
		defines:   map[string]define{},
		env:       map[string]string{},
		runner:    ExecRunner{},
	}
}

// WithRunner replaces the command runner.
func (c *CMake) WithRunner(r Runner) *CMake {
	c.runner = r
	return c
}

// Source sets the directory holding the top-level CMakeLists.txt.
func (c *CMake) Source(dir string) *CMake {
	c.sourceDir = dir
	return c
}

// BuildDir sets the binary tree.
func (c *CMake) BuildDir(dir string) *CMake {
	c.buildDir = dir
	return c
}

// InstallDir sets CMAKE_INSTALL_PREFIX and the --prefix of the install step.
func (c *CMake) InstallDir(dir string) *CMake {
	c.installDir = dir
	return c
}

// Generator sets the -G generator; empty lets cmake pick its default.
func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

// BuildType sets CMAKE_BUILD_TYPE and the --config of the build and install steps.
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Jobs sets the --parallel level of the build step; zero omits it.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

// Define adds a STRING cache entry to the configure step.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = define{value: value, typeName: "STRING"}
	return c
}

// Env adds a variable to the environment of every cmake invocation.
func (c *CMake) Env(key, value string) *CMake {
	c.env[key] = value
	return c
}

// Configure generates the binary tree.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}

	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}

	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}

	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}

	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	return c.run(ctx, "configure", cmakeArgs)
}

// Build compiles the binary tree.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}

	if c.jobs > 0 {
		cmakeArgs = append(cmakeArgs, "--parallel", strconv.Itoa(c.jobs))
	}

	cmakeArgs = append(cmakeArgs, args...)

	return c.run(ctx, "build", cmakeArgs)
}

// Install copies the build outputs into the install prefix.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmakeArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}

	if c.installDir != "" {
		cmakeArgs = append(cmakeArgs, "--prefix", c.installDir)
	}

	cmakeArgs = append(cmakeArgs, args...)

	return c.run(ctx, "install", cmakeArgs)
}

// OutputDir returns the install prefix if set, otherwise the binary tree.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}

	return c.buildDir
}

func (c *CMake) run(ctx context.Context, step string, args []string) error {
	logger.DebugKV(ctx, "Running cmake", "step", step, "binary", c.binary, "args", args)

	var env []string
	if len(c.env) > 0 {
		env = mergeEnv(os.Environ(), c.env)
	}

	return c.runner.Run(ctx, c.binary, args, env)
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}

	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.defines[k]
		args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
	}

	return args
}

// mergeEnv overlays override on base and returns a sorted KEY=VALUE list.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}

	for k, v := range override {
		envMap[k] = v
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}

	return out
}
