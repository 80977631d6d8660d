// Package provenance records how and when a training run was launched.
package provenance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the provenance record written into every run directory.
const FileName = "provenance.json"

// Unknown is recorded when a best-effort lookup fails.
const Unknown = "unknown"

// TimeLayout formats Record.Time.
const TimeLayout = "2006-01-02 15:04:05"

// Record is written once per launch and never updated afterwards.
type Record struct {
	Model              string   `json:"model"`
	RepoPath           string   `json:"repo_path"`
	RepoCommit         string   `json:"repo_commit"`
	RepoUpstreamCommit string   `json:"repo_upstream_commit,omitempty"`
	BenchCommit        string   `json:"bench_commit"`
	Time               string   `json:"time"`
	Argv               []string `json:"argv"`
	Python             string   `json:"python"`

	// Accelerator is nil when torch could not be introspected; its keys are
	// then absent from the JSON instead of partially filled.
	*Accelerator

	RunID           string   `json:"run_id"`
	GoVersion       string   `json:"go_version"`
	LauncherVersion string   `json:"launcher_version"`
	Env             []string `json:"env,omitempty"`
}

// Accelerator describes the torch/CUDA stack visible to the trainer's interpreter.
type Accelerator struct {
	Torch         string  `json:"torch"`
	CUDAVersion   *string `json:"cuda_version"`
	CUDAAvailable bool    `json:"cuda_available"`
	GPUName       *string `json:"gpu_name"`
}

// Write stores rec as dir/provenance.json, replacing any previous record.
func Write(dir string, rec Record) (string, error) {
	path := filepath.Join(dir, FileName)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode provenance: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write provenance: %w", err)
	}
	return path, nil
}
