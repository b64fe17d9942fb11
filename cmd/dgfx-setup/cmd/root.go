package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/dgfx-setup/internal/config"
	"github.com/oshokin/dgfx-setup/internal/environment"
	"github.com/oshokin/dgfx-setup/internal/logger"
	"github.com/oshokin/dgfx-setup/internal/service/backend"
	"github.com/oshokin/dgfx-setup/internal/service/setup"
	"github.com/oshokin/dgfx-setup/internal/version"
)

// rootCmd passes every argument through untouched, so flag parsing is disabled.
//
//nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
var rootCmd = &cobra.Command{
	Use:   "dgfx-setup [setup-args...]",
	Short: "Build and stage the dgfx native extension.",
	Long: `Builds the dgfx native library with CMake and stages it with the dgfxpy package.

A run whose arguments contain the "build" token configures, builds and installs
the native library from the current directory. Any other run skips CMake and
leaves native files out of the package. TEMP and TMP are pointed at the build
directory in both cases.

Recognized options: --skip-cmake, --build-type <type>, -G/--generator <name>,
-j/--jobs <n>. Arguments after "--" are passed to the cmake configure step.
Settings are read from dgfx-setup.yaml or the file named by DGFX_SETUP_CONFIG.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stop cmake on interrupt.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return run(ctx, args)
	},
}

// Execute runs the dgfx-setup CLI with args and returns the process exit status.
func Execute(args []string) int {
	if args == nil {
		args = []string{}
	}

	rootCmd.SetArgs(args)

	ctx := logger.WithName(context.Background(), "dgfx-setup")

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Setup failed", "error", err)
	}

	logger.Sync()

	return setup.ExitStatus(err)
}

func run(ctx context.Context, args []string) error {
	settings, err := config.LoadOrDefault(config.Path())
	if err != nil {
		return err
	}

	if err = applyLogLevel(settings); err != nil {
		return err
	}

	logger.DebugKV(ctx, "Starting", "version", version.Full(), "args", args)

	return setup.Run(ctx, &setup.Options{
		Arguments: args,
		Env:       environment.Process{},
		Backend:   backend.NewStager(settings),
	})
}

// applyLogLevel sets the log level from LogLevelEnv or the settings.
func applyLogLevel(settings *config.Config) error {
	raw := settings.LogLevel
	if fromEnv := os.Getenv(config.LogLevelEnv); fromEnv != "" {
		raw = fromEnv
	}

	level, ok := logger.ParseLogLevel(raw)
	if !ok {
		return fmt.Errorf("unknown log level %q", raw)
	}

	logger.SetLevel(level)

	return nil
}
