package launcher

import (
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/kballard/go-shellquote"
)

// LogFileName is the combined stdout/stderr log written under the tee strategy.
const LogFileName = "train.log"

type Strategy string

const (
	// StrategyTee wraps the trainer in script(1) so output reaches both the
	// terminal and train.log.
	StrategyTee Strategy = "tee"
	// StrategyReplace runs the trainer with inherited stdio and no log file.
	StrategyReplace Strategy = "replace"
)

// Plan is what Run executes: the final argv (possibly wrapped) plus where its
// output is logged.
type Plan struct {
	Strategy Strategy
	Command  Command
	// Argv is the argv actually started; equal to Command.Argv for StrategyReplace.
	Argv []string
	// LogPath is empty for StrategyReplace.
	LogPath string
}

// Planner chooses an execution strategy.
type Planner struct {
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	// GOOS defaults to runtime.GOOS; it selects the script(1) dialect.
	GOOS string
	// NoTee forces StrategyReplace.
	NoTee bool
}

// Plan wraps cmd in script(1) when available, logging to outDir/train.log.
func (p Planner) Plan(cmd Command, outDir string) Plan {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	replace := Plan{Strategy: StrategyReplace, Command: cmd, Argv: cmd.Argv}
	if p.NoTee || goos == "windows" {
		return replace
	}
	scriptBin, err := lookPath("script")
	if err != nil {
		return replace
	}

	logPath := filepath.Join(outDir, LogFileName)
	if abs, err := filepath.Abs(logPath); err == nil {
		logPath = abs
	}
	return Plan{
		Strategy: StrategyTee,
		Command:  cmd,
		Argv:     scriptArgv(goos, scriptBin, logPath, cmd.Argv),
		LogPath:  logPath,
	}
}

// scriptArgv builds the script(1) invocation.
//
//	util-linux: script -q -e -f LOG -c 'CMD'   (-e: exit with the child's status)
//	BSD/darwin: script -q -F LOG CMD...        (always exits with the child's status)
func scriptArgv(goos, scriptBin, logPath string, argv []string) []string {
	switch goos {
	case "darwin", "freebsd", "openbsd", "netbsd", "dragonfly":
		out := []string{scriptBin, "-q", "-F", logPath}
		return append(out, argv...)
	default:
		return []string{scriptBin, "-q", "-e", "-f", logPath, "-c", shellquote.Join(argv...)}
	}
}

// String renders argv the way a user would type it.
func (p Plan) String() string {
	return shellquote.Join(p.Argv...)
}

// TrainerString renders the unwrapped trainer argv.
func (p Plan) TrainerString() string {
	return shellquote.Join(p.Command.Argv...)
}
