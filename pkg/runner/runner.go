// Package runner invokes the external benchmark harness once per
// (instance, configuration, repetition). Repetition failures are swallowed
// so one bad run does not abort the remaining repetitions.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Effectively no timeout; the harness is trusted to terminate.
const defaultTimeout = 24 * time.Hour

// CommandRunner abstracts subprocess execution for the harness.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs the harness on the host with inherited output streams.
type ExecRunner struct{}

// Run executes one harness invocation.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Harness wraps the external benchmark runner binary.
type Harness struct {
	Bin            string
	SandboxProfile string // empty disables sandboxing
	Timeout        time.Duration
	Runner         CommandRunner
}

// Invocation is one harness run against a single toolchain.
type Invocation struct {
	Toolchain string
	CorpusDir string
	Subset    string // optional corpus subset, e.g. "smoketest"
	StatsDir  string
}

// Args builds the harness argument vector for one invocation.
func (h *Harness) Args(inv Invocation) []string {
	args := []string{
		"--toolchain", inv.Toolchain,
		"--corpus", inv.CorpusDir,
		"--stats-dir", inv.StatsDir,
	}
	if inv.Subset != "" {
		args = append(args, "--subset", inv.Subset)
	}
	if h.SandboxProfile != "" {
		args = append(args, "--sandbox-profile", h.SandboxProfile)
	}
	return args
}

// Run executes the harness reps times and returns the per-repetition errors
// that were swallowed. The stats directory is created up front; records from
// successful repetitions accumulate there.
func (h *Harness) Run(ctx context.Context, inv Invocation, reps int) []error {
	if err := os.MkdirAll(inv.StatsDir, 0o755); err != nil {
		return []error{fmt.Errorf("create stats dir %s: %w", inv.StatsDir, err)}
	}

	runner := h.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var swallowed []error
	for rep := 0; rep < reps; rep++ {
		repCtx, cancel := context.WithTimeout(ctx, timeout)
		err := runner.Run(repCtx, h.Bin, h.Args(inv)...)
		cancel()
		if err != nil {
			swallowed = append(swallowed, fmt.Errorf("repetition %d: %w", rep+1, err))
		}
	}
	return swallowed
}
