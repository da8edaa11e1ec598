// Package delta drives the external table-generation tool that compares two
// stats directories (or a stats directory against a CSV baseline) and writes
// a markdown table per comparison.
package delta

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// CommandRunner abstracts subprocess execution for the delta tool.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// ExecRunner runs commands on the host, inheriting stderr so tool
// diagnostics land in the CI log.
type ExecRunner struct{}

// Run executes one command and returns its exit code.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("run %s: %w", name, err)
}

// Tool invokes the external comparison tool with fixed thresholds.
type Tool struct {
	Path      string
	DeltaPct  float64
	DeltaUsec float64
	Runner    CommandRunner
}

// Request identifies one table to generate.
type Request struct {
	SelectStat  string
	OldPath     string // old-instance stats dir, or stats dir for baseline mode
	NewPath     string // new-instance stats dir; empty in baseline mode
	BaselineCSV string // set for baseline comparisons
	OutFile     string
}

// Args builds the tool's argument vector for one request.
func (t *Tool) Args(req Request) []string {
	args := []string{
		"--select-stat", req.SelectStat,
		"--delta-pct-thresh", strconv.FormatFloat(t.DeltaPct, 'f', -1, 64),
		"--delta-usec-thresh", strconv.FormatFloat(t.DeltaUsec, 'f', -1, 64),
		"--markdown",
		"--output", req.OutFile,
	}
	if req.BaselineCSV != "" {
		args = append(args, "--compare-to-csv-baseline", req.BaselineCSV, req.OldPath)
		return args
	}
	args = append(args, "--compare-stats-dirs", req.OldPath, req.NewPath)
	return args
}

// Generate runs the tool for one request and returns its exit code. A
// nonzero code means the tool detected deltas past the thresholds; it is
// collected by the caller, never treated as fatal to report assembly.
func (t *Tool) Generate(ctx context.Context, req Request) (int, error) {
	runner := t.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return runner.Run(ctx, t.Path, t.Args(req)...)
}
