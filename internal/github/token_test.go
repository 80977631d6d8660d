package github

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// ghStub puts a fake gh on an otherwise empty PATH. An empty script leaves gh
// absent.
func ghStub(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	if script != "" {
		if runtime.GOOS == "windows" {
			t.Skip("gh stub is a shell script")
		}
		if err := os.WriteFile(filepath.Join(dir, "gh"), []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
			t.Fatalf("write gh stub: %v", err)
		}
	}
	t.Setenv("PATH", dir)
}

func TestResolveAuthToken(t *testing.T) {
	tests := []struct {
		name        string
		provided    string
		githubToken string
		ghToken     string
		gh          string
		cancelled   bool
		wantToken   string
		wantSource  AuthTokenSource
		wantErr     bool
	}{
		{
			name:        "explicit beats environment",
			provided:    " explicit ",
			githubToken: "env-token",
			wantToken:   "explicit",
			wantSource:  AuthTokenSourceExplicit,
		},
		{
			name:        "GITHUB_TOKEN beats GH_TOKEN",
			githubToken: "env-token",
			ghToken:     "gh-env-token",
			wantToken:   "env-token",
			wantSource:  AuthTokenSourceEnv,
		},
		{
			name:       "GH_TOKEN when GITHUB_TOKEN is unset",
			ghToken:    " gh-env-token\n",
			wantToken:  "gh-env-token",
			wantSource: AuthTokenSourceGHEnv,
		},
		{
			name:       "gh auth token as last resort",
			gh:         "echo gh-token",
			wantToken:  "gh-token",
			wantSource: AuthTokenSourceGitHubCL,
		},
		{
			name: "anonymous when nothing is configured",
		},
		{
			name:    "multi-line gh output is rejected",
			gh:      `printf 'line1\nline2\n'`,
			wantErr: true,
		},
		{
			name:      "cancelled context stops gh",
			gh:        "echo gh-token",
			cancelled: true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GITHUB_TOKEN", tt.githubToken)
			t.Setenv("GH_TOKEN", tt.ghToken)
			ghStub(t, tt.gh)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancelled {
				cancel()
			}

			tok, src, err := ResolveAuthToken(ctx, tt.provided)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got token %q from %q", tok, src)
				}
				if tt.cancelled && !errors.Is(err, context.Canceled) {
					t.Fatalf("expected context.Canceled, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAuthToken error: %v", err)
			}
			if tok != tt.wantToken || src != tt.wantSource {
				t.Fatalf("got %q from %q, want %q from %q", tok, src, tt.wantToken, tt.wantSource)
			}
		})
	}
}
