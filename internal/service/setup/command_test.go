package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dgfx-setup/internal/domain/packaging"
	"github.com/oshokin/dgfx-setup/internal/environment"
)

// recordingBackend captures what the procedure hands to the backend.
type recordingBackend struct {
	env   *environment.Recorder
	calls int
	cfg   *packaging.Config
	args  []string
	// envAtCall is the environment observed when Package was invoked.
	envAtCall map[string]string
	err       error
}

func (b *recordingBackend) Package(_ context.Context, cfg *packaging.Config, args []string) error {
	b.calls++
	b.cfg = cfg
	b.args = args
	b.envAtCall = b.env.Snapshot()

	return b.err
}

// TestRun covers the documented scenarios end to end with a recording backend.
func TestRun(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		args      []string
		wantBuild bool
	}{
		{name: "build", args: []string{"build"}, wantBuild: true},
		{name: "sdist", args: []string{"sdist"}},
		{name: "no arguments", args: []string{}},
		{name: "build with skip", args: []string{"build", "--skip-cmake"}, wantBuild: true},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := environment.NewRecorder()
			be := &recordingBackend{env: env}

			err := Run(context.Background(), &Options{
				Arguments: tc.args,
				Env:       env,
				Backend:   be,
			})
			require.NoError(t, err)
			require.Equal(t, 1, be.calls)
			require.Equal(t, tc.args, be.args)

			// Variables are in place before the backend runs.
			require.Equal(t, map[string]string{"TEMP": "build", "TMP": "build"}, be.envAtCall)
			require.Equal(t, map[string]string{"TEMP": "build", "TMP": "build"}, env.Snapshot())

			require.Equal(t, "dgfx", be.cfg.PackageName)
			require.Equal(t, "1.0", be.cfg.Version)
			require.Equal(t, []string{"dgfxpy"}, be.cfg.Packages)
			require.Equal(t, "build", be.cfg.InstallDir)

			dir, hasDir := be.cfg.NativeSourceDir()
			hook, hasHook := be.cfg.ManifestHook()
			require.Equal(t, tc.wantBuild, hasDir)
			require.Equal(t, !tc.wantBuild, hasHook)

			if tc.wantBuild {
				require.Equal(t, ".", dir)
			} else {
				require.Empty(t, hook([]string{"lib/libdgfx.so"}))
			}
		})
	}
}

// TestRunReturnsBackendErrorUnchanged checks that failures are not wrapped.
func TestRunReturnsBackendErrorUnchanged(t *testing.T) {
	t.Parallel()

	failure := errors.New("backend failed")
	env := environment.NewRecorder()

	err := Run(context.Background(), &Options{
		Arguments: []string{"build"},
		Env:       env,
		Backend:   &recordingBackend{env: env, err: failure},
	})
	require.Same(t, failure, err)

	// Variables stay set after a failure.
	value, ok := env.Get("TMP")
	require.True(t, ok)
	require.Equal(t, "build", value)
}

// failingEnv rejects every write.
type failingEnv struct{}

func (failingEnv) Setenv(string, string) error { return errors.New("read-only environment") }

// TestRunEnvironmentFailure stops before the backend when variables cannot be set.
func TestRunEnvironmentFailure(t *testing.T) {
	t.Parallel()

	be := &recordingBackend{env: environment.NewRecorder()}

	err := Run(context.Background(), &Options{Env: failingEnv{}, Backend: be})
	require.Error(t, err)
	require.Zero(t, be.calls)
}

// TestRunWithoutBackend rejects a missing backend.
func TestRunWithoutBackend(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Run(context.Background(), &Options{}), errBackendIsNotSet)
}

// TestRunDefaultsToProcessEnvironment writes the real variables when no writer is given.
func TestRunDefaultsToProcessEnvironment(t *testing.T) {
	t.Setenv("TEMP", "")
	t.Setenv("TMP", "")

	be := &recordingBackend{env: environment.NewRecorder()}
	require.NoError(t, Run(context.Background(), &Options{Arguments: []string{"sdist"}, Backend: be}))

	for _, key := range TempDirVariables {
		require.Equal(t, "build", os.Getenv(key))
	}
}

type codedError struct {
	code int
}

func (e codedError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func (e codedError) ExitCode() int { return e.code }

// TestExitStatus maps nil, coded and plain errors.
func TestExitStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, ExitStatus(nil))
	require.Equal(t, 1, ExitStatus(errors.New("plain")))
	require.Equal(t, 2, ExitStatus(codedError{code: 2}))
	require.Equal(t, 7, ExitStatus(fmt.Errorf("cmake build: %w", codedError{code: 7})))
	require.Equal(t, 1, ExitStatus(codedError{code: -1}))
}
