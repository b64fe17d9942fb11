package backend

import (
	"io"

	"github.com/spf13/pflag"
)

// arguments are the backend options recognized among the pass-through tokens.
type arguments struct {
	// skipCMake reuses the previous install tree instead of running cmake.
	skipCMake bool
	// buildType overrides the configured CMAKE_BUILD_TYPE.
	buildType string
	// generator overrides the configured CMake generator.
	generator string
	// jobs overrides the configured parallel level.
	jobs int
	// cmakeArgs are the tokens after "--", appended to the configure step.
	cmakeArgs []string
}

// parseArguments extracts backend options. Setup commands and unknown
// options are ignored.
func parseArguments(args []string) (*arguments, error) {
	parsed := new(arguments)

	fs := pflag.NewFlagSet("dgfx-setup", pflag.ContinueOnError)
	fs.ParseErrorsAllowlist.UnknownFlags = true
	fs.SetOutput(io.Discard)

	fs.BoolVar(&parsed.skipCMake, "skip-cmake", false, "skip the cmake steps")
	fs.StringVar(&parsed.buildType, "build-type", "", "CMAKE_BUILD_TYPE")
	fs.StringVarP(&parsed.generator, "generator", "G", "", "CMake generator")
	fs.IntVarP(&parsed.jobs, "jobs", "j", 0, "parallel build jobs")
	// Registered so that a help request is ignored like any other setup option.
	fs.BoolP("help", "h", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		parsed.cmakeArgs = append([]string(nil), fs.Args()[dash:]...)
	}

	return parsed, nil
}
