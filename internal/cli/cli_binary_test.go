package cli

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	// internal/cli -> repo root
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func goExe() string {
	if runtime.GOOS == "windows" {
		return "go.exe"
	}
	return "go"
}

func buildBinary(t *testing.T) string {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "pctbench-test")
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}

	cmd := exec.Command(goExe(), "build", "-o", outPath, "./cmd/pctbench")
	cmd.Dir = repoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build pctbench binary: %v; output=%s", err, string(out))
	}

	return outPath
}

func exitCode(t *testing.T, err error, out []byte) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v; output=%s", err, err, string(out))
	}
	return exitErr.ProcessState.ExitCode()
}

func TestTrain_ExitCode3_WhenConfigInvalid(t *testing.T) {
	binary := buildBinary(t)
	cmd := exec.Command(binary, "train", "--root", t.TempDir(), "--console-format", "xml")

	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 3 {
		t.Fatalf("expected exit code 3, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "unsupported --console-format: xml") {
		t.Fatalf("expected validation message; output=%s", string(out))
	}
}

func TestTrain_ForwardsArgsAfterFirstPositional(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	binary := buildBinary(t)
	root := t.TempDir()
	repo := filepath.Join(root, "repos", "Point-Transformers")
	if err := os.MkdirAll(repo, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	python := fakeTrainer(t, "4")

	cmd := exec.Command(binary, "train", "--root", root, "--no-tee", "--python", python, "epoch=3", "--out", "ignored")
	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 4 {
		t.Fatalf("expected the trainer's exit code 4, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "[warn] --out is forwarded to the trainer") {
		t.Fatalf("expected ambiguity warning; output=%s", string(out))
	}

	args, err := os.ReadFile(filepath.Join(repo, "args.txt"))
	if err != nil {
		t.Fatalf("trainer did not run: %v; output=%s", err, string(out))
	}
	if got, want := string(args), "-u\ntrain_cls.py\nepoch=3\n--out\nignored\n"; got != want {
		t.Fatalf("forwarded args mismatch: got %q want %q", got, want)
	}
}

func TestTrain_Help_DocumentsOutputAndExitCodes(t *testing.T) {
	binary := buildBinary(t)
	cmd := exec.Command(binary, "train", "--help")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("expected zero exit; err=%v; output=%s", err, string(out))
	}

	s := string(out)
	required := []string{
		"Output:",
		"Exit codes:",
		"train.log",
		"provenance.json",
		"run.started",
		"run.finished",
		"--no-tee",
	}
	for _, r := range required {
		if !strings.Contains(s, r) {
			t.Fatalf("expected train --help to contain %q; output=%s", r, s)
		}
	}
}

func TestVersion_PrintsBuildInfo(t *testing.T) {
	binary := buildBinary(t)
	out, err := exec.Command(binary, "version").CombinedOutput()
	if err != nil {
		t.Fatalf("expected zero exit; err=%v; output=%s", err, string(out))
	}
	if !strings.HasPrefix(string(out), "pctbench dev\n") {
		t.Fatalf("unexpected version output: %s", string(out))
	}
}

func TestPlotCloud_RequiresInput(t *testing.T) {
	binary := buildBinary(t)
	cmd := exec.Command(binary, "plot", "cloud", "--out", filepath.Join(t.TempDir(), "x.png"))

	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 1 {
		t.Fatalf("expected exit code 1, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "--input is required") {
		t.Fatalf("expected missing input message; output=%s", string(out))
	}
}
