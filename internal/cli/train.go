package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pctbench/internal/config"
	"pctbench/internal/dataset"
	"pctbench/internal/flags"
	gh "pctbench/internal/github"
	"pctbench/internal/launcher"
	"pctbench/internal/output"
	"pctbench/internal/provenance"
	"pctbench/internal/rundir"

	"github.com/spf13/cobra"
)

var cfg = config.New()

// exitFatal is returned when the trainer never ran: bad configuration, an
// unwritable output directory, or a command that could not be started.
const exitFatal = 3

var trainCmd = &cobra.Command{
	Use:   "train [flags] [--] [trainer args...]",
	Short: "Launch a Point-Transformers training run",
	Long: `Launch the external Point-Transformers trainer with provenance capture.

Steps:
	1) create the run directory (--out, default <root>/runs/pct/<timestamp>)
	2) write <out>/provenance.json: repo and bench commits, python, torch/CUDA/GPU
	3) link <repo>/modelnet40_normal_resampled to the dataset (--data)
	4) run "<python> -u train_cls.py <trainer args...>" inside --repo

Everything after the first positional argument or "--" is forwarded to the
trainer verbatim, so trainer overrides never collide with launcher flags.

Output:
	When script(1) is on PATH the trainer runs under it and everything it prints
	is also written to <out>/train.log. Otherwise (or with --no-tee) the trainer
	inherits the terminal and no train.log is produced.

	Launcher messages go to stderr, as text or NDJSON (--console-format).
	--events also writes them to <out>/events.ndjson. Event types:
	run.started, provenance.written, link.created, link.unchanged, link.relinked,
	link.skipped, link.failed, tee.unavailable, command, run.finished.

Exit codes:
	the trainer's exit status (128+N when it was killed by signal N)
	3 = fatal error (the trainer did not run)

Examples:
	# Defaults: bench root is the current directory
	pctbench train

	# Forward Hydra overrides to the trainer
	pctbench train --out runs/pct/baseline -- epoch=250 batch_size=32

	# Provision and record provenance only
	pctbench train --dry-run --upstream
`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg.Launch.Extra = launcher.StripSeparator(args)
		for _, arg := range ambiguousArgs(args, cmd.ArgsLenAtDash()) {
			fmt.Fprintf(os.Stderr, "[warn] %s is forwarded to the trainer; launcher flags must come before the first trainer argument\n", arg)
		}
		os.Exit(runTrain(cmd.Context(), cfg, trainDeps{}))
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().SetInterspersed(false)

	// Paths
	trainCmd.Flags().StringVar(&cfg.Paths.Root, flags.FlagRoot, cfg.Paths.Root, "Bench root; relative defaults resolve against it")
	trainCmd.Flags().StringVar(&cfg.Paths.Repo, flags.FlagRepo, "", "Point-Transformers checkout (default: <root>/"+config.DefaultRepoDir+")")
	trainCmd.Flags().StringVar(&cfg.Paths.Data, flags.FlagData, "", "Dataset directory (default: <root>/datasets/"+config.DatasetDirName+")")
	trainCmd.Flags().StringVar(&cfg.Paths.Out, flags.FlagOut, "", "Run output directory (default: <root>/runs/pct/<timestamp>)")

	// Launch
	trainCmd.Flags().StringVar(&cfg.Launch.Python, flags.FlagPython, cfg.Launch.Python, "Python interpreter used for the trainer and version probes (relative paths resolve against --root)")
	trainCmd.Flags().StringVar(&cfg.Launch.Script, flags.FlagScript, cfg.Launch.Script, "Trainer entry point, relative to --repo")
	trainCmd.Flags().BoolVar(&cfg.Launch.NoSymlink, flags.FlagNoSymlink, false, "Do not create the dataset link inside --repo")
	trainCmd.Flags().BoolVar(&cfg.Launch.NoTee, flags.FlagNoTee, false, "Run the trainer without script(1); no train.log is written")
	trainCmd.Flags().BoolVar(&cfg.Launch.DryRun, flags.FlagDryRun, false, "Provision, record provenance and link, then print the command without running it")
	trainCmd.Flags().BoolVar(&cfg.Launch.Upstream, flags.FlagUpstream, false, "Also record the upstream default-branch head of --repo via the GitHub API")
	trainCmd.Flags().StringArrayVar(&cfg.Launch.Env, flags.FlagEnv, nil, "Trainer environment override KEY=VALUE (repeatable; values are not split on commas)")

	// Output
	trainCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|ndjson (default: text)")
	trainCmd.Flags().BoolVar(&cfg.Output.Events, flags.FlagEvents, false, "Also write launch events to <out>/"+output.EventsFileName)
}

// trainDeps holds the collaborators runTrain would otherwise take from the
// process. Zero values select the real implementations.
type trainDeps struct {
	stderr   io.Writer
	now      func() time.Time
	lookPath func(string) (string, error)
	runner   *launcher.Runner
	argv     []string
	upstream func(ctx context.Context, cfg *config.Config, stderr io.Writer) provenance.UpstreamResolver
}

func (d trainDeps) withDefaults() trainDeps {
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.runner == nil {
		d.runner = launcher.NewRunner()
	}
	if d.argv == nil {
		d.argv = os.Args
	}
	if d.upstream == nil {
		d.upstream = githubUpstream
	}
	return d
}

// runTrain performs one launch and returns the process exit code.
func runTrain(ctx context.Context, cfg *config.Config, deps trainDeps) int {
	if ctx == nil {
		ctx = context.Background()
	}
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(deps.stderr, "Error: %v\n", err)
		return exitFatal
	}

	// One clock read names the run directory and stamps provenance.json.
	started := deps.now()
	outDir, err := rundir.Provision(cfg.Paths.Out, cfg.Paths.Root, started)
	if err != nil {
		fmt.Fprintf(deps.stderr, "Error: %v\n", err)
		return exitFatal
	}

	mgr := output.NewManager(deps.stderr)
	defer func() {
		if err := mgr.Close(); err != nil {
			fmt.Fprintf(deps.stderr, "Error: %v\n", err)
		}
	}()
	if err := mgr.AddSink(output.NewConsoleSink(deps.stderr, cfg.Output.ConsoleFormat)); err != nil {
		fmt.Fprintf(deps.stderr, "Error: %v\n", err)
		return exitFatal
	}
	if cfg.Output.Events {
		fs, err := output.NewFileSink(filepath.Join(outDir, output.EventsFileName))
		if err != nil {
			fmt.Fprintf(deps.stderr, "Error: %v\n", err)
			return exitFatal
		}
		if err := mgr.AddSink(fs); err != nil {
			fmt.Fprintf(deps.stderr, "Error: %v\n", err)
			return exitFatal
		}
	}
	emit := mgr.Emit

	emit(output.Event{Type: output.EventRunStarted, Dir: outDir})

	// Provenance
	var verbose io.Writer
	if cfg.Runtime.Verbose {
		verbose = deps.stderr
	}
	collector := &provenance.Collector{
		Model:           config.DefaultModel,
		RepoDir:         cfg.Paths.Repo,
		BenchDir:        cfg.Paths.Root,
		Python:          cfg.Launch.Python,
		Argv:            deps.argv,
		Env:             cfg.Launch.Env,
		LauncherVersion: buildVersion,
		Timeout:         cfg.Runtime.ProbeTimeout,
		Verbose:         verbose,
		Now:             func() time.Time { return started },
	}
	if cfg.Launch.Upstream {
		collector.Upstream = deps.upstream(ctx, cfg, deps.stderr)
	}
	provPath, err := provenance.Write(outDir, collector.Collect(ctx))
	if err != nil {
		fmt.Fprintf(deps.stderr, "Error: %v\n", err)
		emit(output.Finished(exitFatal, ""))
		return exitFatal
	}
	emit(output.Event{Type: output.EventProvenanceWritten, Path: provPath})

	// Dataset link
	linkPath := cfg.LinkPath()
	if cfg.Launch.NoSymlink {
		emit(output.Event{Type: output.EventLinkSkipped, Path: linkPath})
	} else if outcome, err := dataset.EnsureLink(cfg.Paths.Data, linkPath); err != nil {
		emit(output.Event{Type: output.EventLinkFailed, Path: linkPath, Target: cfg.Paths.Data, Message: err.Error()})
	} else {
		emit(output.Event{Type: output.EventLinkPrefix + string(outcome), Path: linkPath, Target: cfg.Paths.Data})
	}

	// Launch
	if _, err := os.Stat(cfg.TrainerPath()); err != nil {
		fmt.Fprintf(deps.stderr, "[warn] trainer entry point %s not found; the trainer will likely fail to start\n", cfg.TrainerPath())
	}
	command := launcher.Command{
		Argv: launcher.BuildCommand(cfg.Launch.Python, cfg.Launch.Script, cfg.Launch.Extra),
		Dir:  cfg.Paths.Repo,
		Env:  cfg.Launch.Env,
	}
	plan := launcher.Planner{LookPath: deps.lookPath, NoTee: cfg.Launch.NoTee}.Plan(command, outDir)
	if plan.Strategy == launcher.StrategyReplace {
		reason := "'script' not found; running without tee. No train.log will be produced."
		if cfg.Launch.NoTee {
			reason = "--no-tee set; running without tee. No train.log will be produced."
		}
		emit(output.Event{Type: output.EventTeeUnavailable, Message: reason})
	}
	emit(output.Event{Type: output.EventCommand, Command: plan.TrainerString(), Strategy: string(plan.Strategy), LogPath: plan.LogPath})

	if cfg.Launch.DryRun {
		emit(output.Finished(0, "dry run: trainer not started"))
		return 0
	}

	code, err := deps.runner.Run(ctx, plan)
	if err != nil {
		fmt.Fprintf(deps.stderr, "Error: %v\n", err)
		emit(output.Finished(exitFatal, ""))
		return exitFatal
	}
	emit(output.Finished(code, ""))
	return code
}

// githubUpstream builds the GitHub-backed resolver for --upstream. Failing to
// build one only drops the optional field.
func githubUpstream(ctx context.Context, cfg *config.Config, stderr io.Writer) provenance.UpstreamResolver {
	token, _, err := gh.ResolveAuthToken(ctx, "")
	if err != nil && cfg.Runtime.Verbose {
		fmt.Fprintf(stderr, "[verbose] github token: %v (continuing anonymously)\n", err)
	}
	client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, stderr))
	if err != nil {
		fmt.Fprintf(stderr, "[warn] upstream lookup disabled: %v\n", err)
		return nil
	}
	return client
}

// ambiguousArgs lists forwarded arguments that name a launcher flag. They
// reach the trainer only because a positional argument came first.
func ambiguousArgs(args []string, dashAt int) []string {
	if dashAt == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(flags.Launcher()))
	for _, name := range flags.Launcher() {
		known[name] = struct{}{}
	}

	var out []string
	for i, arg := range args {
		if arg == launcher.Separator || (dashAt > 0 && i >= dashAt) {
			break
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if _, ok := known[name]; ok {
			out = append(out, arg)
		}
	}
	return out
}
