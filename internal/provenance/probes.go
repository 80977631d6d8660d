package provenance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// accelScript prints one JSON object describing torch and the first CUDA
// device. Any exception (torch missing, driver errors) makes it exit non-zero.
const accelScript = `import json
import torch
avail = bool(torch.cuda.is_available())
print(json.dumps({
    "torch": torch.__version__,
    "cuda_version": getattr(torch.version, "cuda", None),
    "cuda_available": avail,
    "gpu_name": torch.cuda.get_device_name(0) if avail else None,
}))
`

const pythonVersionScript = "import sys; print(sys.version)"

// gitRevision returns HEAD of the working tree containing dir, or Unknown.
func (p *prober) gitRevision(ctx context.Context, dir string) string {
	out, err := p.output(ctx, dir, "git", "rev-parse", "HEAD")
	if err != nil || out == "" {
		return Unknown
	}
	return out
}

// gitRemote returns the fetch URL of origin, or "" when there is none.
func (p *prober) gitRemote(ctx context.Context, dir string) string {
	out, err := p.output(ctx, dir, "git", "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return out
}

func (p *prober) pythonVersion(ctx context.Context, dir, python string) string {
	out, err := p.output(ctx, dir, python, "-c", pythonVersionScript)
	if err != nil || out == "" {
		return Unknown
	}
	return out
}

// accelerator returns nil unless the whole torch probe succeeds.
func (p *prober) accelerator(ctx context.Context, dir, python string) *Accelerator {
	out, err := p.output(ctx, dir, python, "-c", accelScript)
	if err != nil {
		return nil
	}
	acc, err := decodeAccelerator(out)
	if err != nil {
		return nil
	}
	return acc
}

// decodeAccelerator parses the last non-empty line of the probe output; torch
// may print warnings before it.
func decodeAccelerator(out string) (*Accelerator, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return nil, errors.New("empty accelerator probe output")
	}

	var acc Accelerator
	if err := json.Unmarshal([]byte(last), &acc); err != nil {
		return nil, err
	}
	if acc.Torch == "" {
		return nil, errors.New("accelerator probe did not report a torch version")
	}
	return &acc, nil
}
