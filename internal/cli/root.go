package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pctbench",
	Short: "Launch Point-Transformers training runs with provenance, and plot point clouds",
	Long: `pctbench launches training of an external Point-Transformers checkout and
records how each run was produced.

Every run gets its own output directory holding provenance.json (commits,
interpreter and accelerator versions, the exact command line) and, when
script(1) is available, a train.log copy of everything the trainer printed.

The plot commands render ModelNet-style point clouds (x, y, z, nx, ny, nz per
point) as images or as an interactive 3D page.

Examples:
	# Show available commands and global flags
	pctbench --help

	# Train with defaults, forwarding overrides to the trainer
	pctbench train -- epoch=200 batch_size=16

	# Render one sample coloured by normal z
	pctbench plot cloud --input samples.npy --index 3 --colorbar --out sample3.png

	# Print build info
	pctbench version

Output:
	Launcher messages go to stderr; the trainer's own output is passed through
	untouched. See "pctbench train --help" for structured event output.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every probe command and GitHub API call)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
