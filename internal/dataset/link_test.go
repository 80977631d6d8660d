package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func skipWithoutSymlinks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
}

func mustResolve(t *testing.T, p string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(p)
	if err != nil {
		t.Fatalf("EvalSymlinks(%s) failed: %v", p, err)
	}
	return r
}

func TestEnsureLink(t *testing.T) {
	skipWithoutSymlinks(t)

	tests := []struct {
		name        string
		setup       func(t *testing.T, link, target, other string)
		wantOutcome Outcome
	}{
		{
			name:        "missing link is created",
			setup:       func(t *testing.T, link, target, other string) {},
			wantOutcome: OutcomeCreated,
		},
		{
			name: "link to target is left alone",
			setup: func(t *testing.T, link, target, other string) {
				if err := os.Symlink(target, link); err != nil {
					t.Fatalf("Symlink failed: %v", err)
				}
			},
			wantOutcome: OutcomeUnchanged,
		},
		{
			name: "link elsewhere is replaced",
			setup: func(t *testing.T, link, target, other string) {
				if err := os.Symlink(other, link); err != nil {
					t.Fatalf("Symlink failed: %v", err)
				}
			},
			wantOutcome: OutcomeRelinked,
		},
		{
			name: "dangling link is replaced",
			setup: func(t *testing.T, link, target, other string) {
				gone := filepath.Join(filepath.Dir(other), "gone")
				if err := os.Symlink(gone, link); err != nil {
					t.Fatalf("Symlink failed: %v", err)
				}
			},
			wantOutcome: OutcomeRelinked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			target := filepath.Join(base, "datasets", "modelnet40_normal_resampled")
			other := filepath.Join(base, "datasets", "other")
			for _, d := range []string{target, other} {
				if err := os.MkdirAll(d, 0o755); err != nil {
					t.Fatalf("MkdirAll failed: %v", err)
				}
			}
			repo := filepath.Join(base, "repos", "Point-Transformers")
			if err := os.MkdirAll(repo, 0o755); err != nil {
				t.Fatalf("MkdirAll failed: %v", err)
			}
			link := filepath.Join(repo, "modelnet40_normal_resampled")
			tt.setup(t, link, target, other)

			got, err := EnsureLink(target, link)
			if err != nil {
				t.Fatalf("EnsureLink failed: %v", err)
			}
			if got != tt.wantOutcome {
				t.Fatalf("outcome: got %q want %q", got, tt.wantOutcome)
			}
			if mustResolve(t, link) != mustResolve(t, target) {
				t.Fatalf("link resolves to %q, want %q", mustResolve(t, link), mustResolve(t, target))
			}
		})
	}
}

func TestEnsureLink_RepeatedCallsAreIdempotent(t *testing.T) {
	skipWithoutSymlinks(t)

	base := t.TempDir()
	first := filepath.Join(base, "a")
	second := filepath.Join(base, "b")
	for _, d := range []string{first, second} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatalf("Mkdir failed: %v", err)
		}
	}
	link := filepath.Join(base, "repo", "data")

	if got, err := EnsureLink(first, link); err != nil || got != OutcomeCreated {
		t.Fatalf("first call: outcome=%q err=%v", got, err)
	}
	if got, err := EnsureLink(first, link); err != nil || got != OutcomeUnchanged {
		t.Fatalf("second call: outcome=%q err=%v", got, err)
	}
	if got, err := EnsureLink(second, link); err != nil || got != OutcomeRelinked {
		t.Fatalf("third call: outcome=%q err=%v", got, err)
	}
	if mustResolve(t, link) != mustResolve(t, second) {
		t.Fatalf("expected link to follow the new target")
	}
}

func TestEnsureLink_CreatesParentDirectories(t *testing.T) {
	skipWithoutSymlinks(t)

	base := t.TempDir()
	link := filepath.Join(base, "missing", "repo", "data")

	if _, err := EnsureLink(base, link); err != nil {
		t.Fatalf("EnsureLink failed: %v", err)
	}
	if _, err := os.Lstat(link); err != nil {
		t.Fatalf("expected link to exist: %v", err)
	}
}

func TestEnsureLink_MissingTargetStillLinks(t *testing.T) {
	skipWithoutSymlinks(t)

	base := t.TempDir()
	target := filepath.Join(base, "not-downloaded-yet")
	link := filepath.Join(base, "repo", "data")

	got, err := EnsureLink(target, link)
	if err != nil {
		t.Fatalf("EnsureLink failed: %v", err)
	}
	if got != OutcomeCreated {
		t.Fatalf("outcome: got %q want %q", got, OutcomeCreated)
	}
	dest, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink failed: %v", err)
	}
	if dest != target {
		t.Fatalf("link points at %q, want %q", dest, target)
	}
}

func TestEnsureLink_RefusesToReplaceRealDirectory(t *testing.T) {
	skipWithoutSymlinks(t)

	base := t.TempDir()
	target := filepath.Join(base, "data")
	link := filepath.Join(base, "repo", "data")
	for _, d := range []string{target, link} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
	}

	_, err := EnsureLink(target, link)
	if !errors.Is(err, ErrNotSymlink) {
		t.Fatalf("expected ErrNotSymlink, got %v", err)
	}
	info, statErr := os.Lstat(link)
	if statErr != nil || !info.IsDir() {
		t.Fatalf("expected real directory to survive, stat err=%v", statErr)
	}
}

func TestEnsureLink_RelinksSymlinkLoop(t *testing.T) {
	skipWithoutSymlinks(t)

	base := t.TempDir()
	target := filepath.Join(base, "data")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	repo := filepath.Join(base, "repo")
	if err := os.Mkdir(repo, 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	link := filepath.Join(repo, "loop")
	if err := os.Symlink(link, link); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	got, err := EnsureLink(target, link)
	if err != nil {
		t.Fatalf("EnsureLink failed: %v", err)
	}
	if got != OutcomeRelinked {
		t.Fatalf("outcome: got %q want %q", got, OutcomeRelinked)
	}
	if mustResolve(t, link) != mustResolve(t, target) {
		t.Fatalf("expected link to resolve to %s", target)
	}
}
