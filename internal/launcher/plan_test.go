package launcher

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func lookPathFound(string) (string, error)   { return "/usr/bin/script", nil }
func lookPathMissing(string) (string, error) { return "", errors.New("not found") }

func TestPlanner_TeeWhenScriptAvailable(t *testing.T) {
	out := t.TempDir()
	cmd := Command{Argv: []string{"python3", "-u", "train_cls.py", "model=Hengshuang", "lr=1e-3 x"}, Dir: "/repo"}

	plan := Planner{LookPath: lookPathFound, GOOS: "linux"}.Plan(cmd, out)

	if plan.Strategy != StrategyTee {
		t.Fatalf("expected tee strategy, got %s", plan.Strategy)
	}
	wantLog := filepath.Join(out, "train.log")
	if plan.LogPath != wantLog {
		t.Fatalf("log path: got %q want %q", plan.LogPath, wantLog)
	}
	want := []string{"/usr/bin/script", "-q", "-e", "-f", wantLog, "-c", `python3 -u train_cls.py model=Hengshuang 'lr=1e-3 x'`}
	if !reflect.DeepEqual(plan.Argv, want) {
		t.Fatalf("argv:\n got %q\nwant %q", plan.Argv, want)
	}
	if plan.TrainerString() != `python3 -u train_cls.py model=Hengshuang 'lr=1e-3 x'` {
		t.Fatalf("unexpected trainer string %q", plan.TrainerString())
	}
}

func TestPlanner_BSDScriptDialect(t *testing.T) {
	out := t.TempDir()
	cmd := Command{Argv: []string{"python3", "-u", "train_cls.py"}}

	plan := Planner{LookPath: lookPathFound, GOOS: "darwin"}.Plan(cmd, out)

	want := []string{"/usr/bin/script", "-q", "-F", filepath.Join(out, "train.log"), "python3", "-u", "train_cls.py"}
	if !reflect.DeepEqual(plan.Argv, want) {
		t.Fatalf("argv:\n got %q\nwant %q", plan.Argv, want)
	}
}

func TestPlanner_ReplaceFallback(t *testing.T) {
	cmd := Command{Argv: []string{"python3", "-u", "train_cls.py"}}

	for name, p := range map[string]Planner{
		"script missing": {LookPath: lookPathMissing, GOOS: "linux"},
		"no-tee forced":  {LookPath: lookPathFound, GOOS: "linux", NoTee: true},
		"windows":        {LookPath: lookPathFound, GOOS: "windows"},
	} {
		t.Run(name, func(t *testing.T) {
			plan := p.Plan(cmd, t.TempDir())
			if plan.Strategy != StrategyReplace {
				t.Fatalf("expected replace strategy, got %s", plan.Strategy)
			}
			if plan.LogPath != "" {
				t.Fatalf("expected no log path, got %q", plan.LogPath)
			}
			if !reflect.DeepEqual(plan.Argv, cmd.Argv) {
				t.Fatalf("argv: got %v want %v", plan.Argv, cmd.Argv)
			}
		})
	}
}
