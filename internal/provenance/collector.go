package provenance

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// UpstreamResolver looks up the upstream head commit for a git remote URL.
type UpstreamResolver interface {
	HeadCommit(ctx context.Context, remoteURL string) (string, error)
}

// Collector gathers a Record. Every lookup is best-effort: failures become
// Unknown or omitted fields and never fail the launch.
type Collector struct {
	Model           string
	RepoDir         string
	BenchDir        string
	Python          string
	Argv            []string
	Env             []string
	LauncherVersion string

	// Upstream is consulted only when non-nil.
	Upstream UpstreamResolver

	// Timeout bounds each individual probe.
	Timeout time.Duration

	// Verbose receives one line per probe when non-nil.
	Verbose io.Writer

	// Now stamps Record.Time; nil means time.Now.
	Now func() time.Time

	newID func() string
	run   runFunc
}

func (c *Collector) Collect(ctx context.Context) Record {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	newID := uuid.NewString
	if c.newID != nil {
		newID = c.newID
	}
	run := c.run
	if run == nil {
		run = execRun
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p := &prober{run: run, timeout: timeout, verbose: c.Verbose}

	rec := Record{
		Model:           c.Model,
		RepoPath:        c.RepoDir,
		Time:            now().Format(TimeLayout),
		Argv:            append([]string(nil), c.Argv...),
		RunID:           newID(),
		GoVersion:       runtime.Version(),
		LauncherVersion: c.LauncherVersion,
		Env:             append([]string(nil), c.Env...),
	}

	// Each probe owns the field it writes; none of them returns an error.
	var g errgroup.Group
	g.Go(func() error {
		rec.RepoCommit = p.gitRevision(ctx, c.RepoDir)
		return nil
	})
	g.Go(func() error {
		rec.BenchCommit = p.gitRevision(ctx, c.BenchDir)
		return nil
	})
	g.Go(func() error {
		rec.Python = p.pythonVersion(ctx, "", c.Python)
		return nil
	})
	g.Go(func() error {
		rec.Accelerator = p.accelerator(ctx, "", c.Python)
		return nil
	})
	if c.Upstream != nil {
		g.Go(func() error {
			rec.RepoUpstreamCommit = c.upstreamHead(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return rec
}

func (c *Collector) upstreamHead(ctx context.Context, p *prober) string {
	remote := p.gitRemote(ctx, c.RepoDir)
	if remote == "" {
		return ""
	}
	lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	sha, err := c.Upstream.HeadCommit(lookupCtx, remote)
	if err != nil {
		return ""
	}
	return sha
}
