package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// launcher. Keeping these as constants avoids drift between Cobra flag wiring
// and other code paths that need to reference flags (e.g. detecting whether a
// forwarded argument collides with a launcher flag).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Paths.Out, flags.FlagOut, "", "...")
//	arg := "--" + flags.FlagOut
const (
	// Paths
	FlagRoot = "root"
	FlagRepo = "repo"
	FlagData = "data"
	FlagOut  = "out"

	// Launch
	FlagPython    = "python"
	FlagScript    = "script"
	FlagNoSymlink = "no-symlink"
	FlagNoTee     = "no-tee"
	FlagDryRun    = "dry-run"
	FlagUpstream  = "upstream"
	FlagEnv       = "env"

	// Output
	FlagConsoleFormat = "console-format"
	FlagEvents        = "events"

	// Runtime
	FlagVerbose = "verbose"

	// Plot
	FlagInput     = "input"
	FlagPoints    = "points"
	FlagIndex     = "index"
	FlagIndices   = "indices"
	FlagTitle     = "title"
	FlagColorbar  = "colorbar"
	FlagPointSize = "point-size"
	FlagElevation = "elev"
	FlagAzimuth   = "azim"
	FlagAddr      = "addr"
	FlagHTML      = "html"
	FlagWidth     = "width"
	FlagHeight    = "height"
)

// Launcher returns every flag name owned by the train command. Arguments
// forwarded to the external trainer that match one of these are ambiguous
// unless separated with "--".
func Launcher() []string {
	return []string{
		FlagRoot, FlagRepo, FlagData, FlagOut,
		FlagPython, FlagScript, FlagNoSymlink, FlagNoTee, FlagDryRun, FlagUpstream, FlagEnv,
		FlagConsoleFormat, FlagEvents,
		FlagVerbose,
	}
}
