package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultRepoDir is the external trainer checkout, relative to the bench root.
	DefaultRepoDir = "repos/Point-Transformers"

	// DatasetDirName is both the default dataset directory name under
	// <root>/datasets and the fixed link name the external trainer expects at
	// the root of its checkout.
	DatasetDirName = "modelnet40_normal_resampled"

	// DefaultScript is the external training entry point, relative to the repo.
	DefaultScript = "train_cls.py"

	// DefaultModel is recorded in provenance.json.
	DefaultModel = "Point-Transformers (PCT variant)"
)

// DefaultEnv is applied to the trainer's environment unless overridden with --env.
// HYDRA_FULL_ERROR makes Hydra print full tracebacks instead of the short summary.
var DefaultEnv = []string{"HYDRA_FULL_ERROR=1"}

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect how
	// the trainer is launched, keep these in sync:
	// - CLI flags in internal/cli/train.go
	// - flag name constants in internal/flags/flags.go
	Paths   Paths
	Launch  Launch
	Output  Output
	Runtime Runtime
}

type Paths struct {
	// Root is the bench checkout that hosts this launcher (see --root).
	// Relative defaults for Repo, Data and Out are resolved against it.
	Root string

	// Repo is the external Point-Transformers checkout (see --repo).
	// Empty means <root>/repos/Point-Transformers.
	Repo string

	// Data is the dataset directory the repo link points at (see --data).
	// Empty means <root>/datasets/modelnet40_normal_resampled.
	Data string

	// Out is the run output directory (see --out).
	// Empty means <root>/runs/pct/<timestamp>.
	Out string
}

type Launch struct {
	// Python is the interpreter used to run the trainer and to probe versions (see --python).
	// After Validate a value containing a path separator is absolute, resolved
	// against Root.
	Python string

	// Script is the trainer entry point relative to Repo (see --script).
	Script string

	// NoSymlink skips creating the dataset link inside Repo (see --no-symlink).
	NoSymlink bool

	// NoTee forces the replace strategy even when `script` is available (see --no-tee).
	NoTee bool

	// DryRun provisions the run and prints the trainer command without running it (see --dry-run).
	DryRun bool

	// Upstream records the upstream default-branch head of Repo via the GitHub API (see --upstream).
	Upstream bool

	// Env holds KEY=VALUE overrides for the trainer environment (see --env).
	// Repeatable; values are not split on commas (CUDA_VISIBLE_DEVICES=0,1 is one entry).
	// After Validate it also contains DefaultEnv entries not overridden by the user.
	Env []string

	// Extra are the arguments forwarded verbatim to the trainer.
	Extra []string
}

type Output struct {
	// ConsoleFormat controls how launch events are printed to stderr (see --console-format).
	// Allowed values: text, ndjson.
	ConsoleFormat string

	// Events writes launch events to <out>/events.ndjson (see --events).
	Events bool
}

type Runtime struct {
	// Verbose prints every probe command and its outcome (see --verbose).
	Verbose bool

	// ProbeTimeout bounds each provenance probe (git, python, GitHub API).
	// Must be > 0.
	ProbeTimeout time.Duration
}

func New() *Config {
	return &Config{
		Paths: Paths{
			Root: ".",
		},
		Launch: Launch{
			Python: "python3",
			Script: DefaultScript,
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			ProbeTimeout: 10 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	// Paths
	root := strings.TrimSpace(c.Paths.Root)
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("invalid --root value: %w", err)
	}
	c.Paths.Root = absRoot

	c.Paths.Repo = resolveAgainst(absRoot, c.Paths.Repo, DefaultRepoDir)
	c.Paths.Data = resolveAgainst(absRoot, c.Paths.Data, filepath.Join("datasets", DatasetDirName))
	if out := strings.TrimSpace(c.Paths.Out); out != "" {
		absOut, err := filepath.Abs(out)
		if err != nil {
			return fmt.Errorf("invalid --out value: %w", err)
		}
		c.Paths.Out = absOut
	}

	// Launch
	c.Launch.Python = strings.TrimSpace(c.Launch.Python)
	if c.Launch.Python == "" {
		return errors.New("--python must not be empty")
	}
	// A bare name is looked up on PATH. A relative path is pinned to the root
	// because the probes and the trainer run in different directories.
	if strings.ContainsRune(c.Launch.Python, '/') || strings.ContainsRune(c.Launch.Python, filepath.Separator) {
		c.Launch.Python = resolveAgainst(absRoot, c.Launch.Python, "")
	}
	c.Launch.Script = strings.TrimSpace(c.Launch.Script)
	if c.Launch.Script == "" {
		return errors.New("--script must not be empty")
	}
	if filepath.IsAbs(c.Launch.Script) {
		return fmt.Errorf("--script must be relative to --repo, got %q", c.Launch.Script)
	}

	env, err := MergeEnv(DefaultEnv, c.Launch.Env)
	if err != nil {
		return err
	}
	c.Launch.Env = env

	// Output
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, ndjson)", c.Output.ConsoleFormat)
	}

	// Runtime
	if c.Runtime.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be > 0")
	}

	return nil
}

// TrainerPath is the absolute path of the trainer entry point.
func (c *Config) TrainerPath() string {
	return filepath.Join(c.Paths.Repo, c.Launch.Script)
}

// LinkPath is where the dataset link is created inside the external repo.
func (c *Config) LinkPath() string {
	return filepath.Join(c.Paths.Repo, DatasetDirName)
}

func resolveAgainst(root, value, def string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = def
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// ParseEnvAssignment splits a KEY=VALUE entry.
//
// Notes:
// - Empty values are allowed ("KEY=").
// - Keys must be non-empty and must not contain whitespace.
func ParseEnvAssignment(raw string) (key, value string, err error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return "", "", fmt.Errorf("invalid --env entry %q: expected KEY=VALUE", raw)
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t\r\n") {
		return "", "", fmt.Errorf("invalid --env entry %q: expected non-empty KEY without whitespace", raw)
	}
	return key, value, nil
}

// MergeEnv overlays KEY=VALUE overrides onto defaults. Later entries win; the
// result is sorted by key so it is stable in provenance.json.
func MergeEnv(defaults, overrides []string) ([]string, error) {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for _, group := range [][]string{defaults, overrides} {
		for _, raw := range group {
			k, v, err := ParseEnvAssignment(raw)
			if err != nil {
				return nil, err
			}
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
