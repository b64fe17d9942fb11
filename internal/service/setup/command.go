package setup

import (
	"context"
	"errors"

	"github.com/oshokin/dgfx-setup/internal/domain/packaging"
	"github.com/oshokin/dgfx-setup/internal/environment"
	"github.com/oshokin/dgfx-setup/internal/logger"
	"github.com/oshokin/dgfx-setup/internal/service/backend"
)

// TempDirVariables are redirected to the install directory before the backend runs.
var TempDirVariables = []string{"TEMP", "TMP"} //nolint:gochecknoglobals // Fixed variable list.

// Options contains inputs for the setup entry point.
type Options struct {
	// Arguments are the invocation arguments, passed to the backend unchanged.
	Arguments []string
	// Env receives the temp directory variables. Nil means environment.Process.
	Env environment.Writer
	// Backend packages the distribution.
	Backend backend.Backend
}

var errBackendIsNotSet = errors.New("packaging backend is not set")

// Run decides the packaging mode and dispatches to the backend.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "setup")

	if opts.Backend == nil {
		return errBackendIsNotSet
	}

	env := opts.Env
	if env == nil {
		env = environment.Process{}
	}

	cfg := packaging.Decide(packaging.NewInvocationContext(opts.Arguments))

	logger.InfoKV(ctx, "Packaging mode selected",
		"mode", cfg.ModeName(),
		"name", cfg.PackageName,
		"version", cfg.Version)

	for _, key := range TempDirVariables {
		if err := env.Setenv(key, cfg.InstallDir); err != nil {
			return err
		}
	}

	return opts.Backend.Package(ctx, cfg, opts.Arguments)
}

// ExitStatus maps the result of Run to a process exit status.
// Errors carrying an exit code, such as *exec.ExitError, keep it.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}

	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		if code := coded.ExitCode(); code > 0 {
			return code
		}
	}

	return 1
}
