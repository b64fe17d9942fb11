// Package setup implements the packaging decision procedure of dgfx.
//
// Run looks for the "build" token among the invocation arguments, derives
// the packaging configuration, points TEMP and TMP at the build directory
// and hands everything to the packaging backend. The backend's error is
// returned as is; ExitStatus turns it into the process exit status.
package setup
