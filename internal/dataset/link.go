// Package dataset makes the dataset visible at the path the external trainer
// hardcodes, without copying it.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeRelinked  Outcome = "relinked"
)

// ErrNotSymlink is returned when something other than a symlink already
// occupies the link path and does not resolve to the target. It is never
// removed.
var ErrNotSymlink = errors.New("link path exists and is not a symlink")

// EnsureLink makes link a symlink to target.
//
//   - missing link: created
//   - link already resolving to target: left alone
//   - link resolving elsewhere, dangling or looping: removed and recreated
//
// Callers treat a returned error as a warning; the run continues without a
// guaranteed dataset link.
func EnsureLink(target, link string) (Outcome, error) {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve target %s: %w", target, err)
	}

	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return "", fmt.Errorf("create link parent: %w", err)
	}

	info, err := os.Lstat(link)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.Symlink(absTarget, link); err != nil {
			return "", fmt.Errorf("symlink %s -> %s: %w", link, absTarget, err)
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", link, err)
	}

	current, err := filepath.EvalSymlinks(link)
	if info.Mode()&fs.ModeSymlink == 0 {
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", link, err)
		}
		if current == canonical(absTarget) {
			return OutcomeUnchanged, nil
		}
		return "", fmt.Errorf("%s: %w", link, ErrNotSymlink)
	}
	// A symlink that does not resolve, dangling or looping, is relinked like
	// one pointing elsewhere.
	if err == nil && current == canonical(absTarget) {
		return OutcomeUnchanged, nil
	}

	if err := os.Remove(link); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("remove stale link %s: %w", link, err)
	}
	if err := os.Symlink(absTarget, link); err != nil {
		return "", fmt.Errorf("symlink %s -> %s: %w", link, absTarget, err)
	}
	return OutcomeRelinked, nil
}

// canonical resolves symlinks in p when it exists; a missing target compares
// by its absolute path.
func canonical(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}
