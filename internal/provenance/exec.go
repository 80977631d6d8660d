package provenance

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// runFunc runs name with args in dir and returns its stdout.
type runFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// prober runs bounded probe commands. Concurrent probes of the same command
// in the same directory share one execution (e.g. --repo pointing at the
// bench root runs `git rev-parse HEAD` once).
type prober struct {
	run     runFunc
	timeout time.Duration
	verbose io.Writer
	group   singleflight.Group
}

func (p *prober) output(ctx context.Context, dir, name string, args ...string) (string, error) {
	key := dir + "\x00" + name + "\x00" + strings.Join(args, "\x00")
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		cmdCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		start := time.Now()
		out, err := p.run(cmdCtx, dir, name, args...)
		if p.verbose != nil {
			status := "ok"
			if err != nil {
				status = err.Error()
			}
			_, _ = fmt.Fprintf(p.verbose, "[verbose] probe: %s %s (dir=%s): %s (%s)\n",
				name, summarizeArgs(args), dir, status, time.Since(start).Truncate(time.Millisecond))
		}
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// summarizeArgs keeps verbose lines to one line even for inline python scripts.
func summarizeArgs(args []string) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if strings.Contains(a, "\n") {
			a = "<script>"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
