// Package rundir decides where a training run writes its artifacts.
package rundir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout names default run directories, e.g. runs/pct/20260107-173129.
const TimestampLayout = "20060102-150405"

// Resolve returns explicit when set, otherwise root/runs/pct/<timestamp>.
func Resolve(explicit, root string, now time.Time) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	return filepath.Join(root, "runs", "pct", now.Format(TimestampLayout))
}

// Ensure creates dir and any missing parents. An existing directory is fine.
func Ensure(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Provision resolves and creates the run directory in one step.
func Provision(explicit, root string, now time.Time) (string, error) {
	dir := Resolve(explicit, root, now)
	if err := Ensure(dir); err != nil {
		return "", err
	}
	return dir, nil
}
