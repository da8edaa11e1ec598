// Package workspace provisions the two isolated toolchain checkouts the
// driver compares and verifies host prerequisites before a run.
package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/toolchainperf/compilebench/pkg/stats"
)

// Environment variables the CI system provides.
const (
	EnvWorkspace = "WORKSPACE"
	EnvJobName   = "JOB_NAME"
)

// CommandRunner abstracts subprocess execution for provisioning and builds.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// ExecRunner runs commands on the host with inherited output streams.
type ExecRunner struct{}

// Run executes one command in dir.
func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Workspace manages the per-instance checkouts under the CI workspace root.
type Workspace struct {
	Root    string
	JobName string
	RepoURL string
	Runner  CommandRunner
}

// FromEnv builds a workspace from CI environment variables. A missing or
// nonexistent workspace root is fatal.
func FromEnv(repoURL string) (*Workspace, error) {
	root := os.Getenv(EnvWorkspace)
	if root == "" {
		return nil, fmt.Errorf("%s is not set", EnvWorkspace)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s does not exist", root)
	}
	return &Workspace{
		Root:    root,
		JobName: os.Getenv(EnvJobName),
		RepoURL: repoURL,
		Runner:  ExecRunner{},
	}, nil
}

// InstanceDir names the checkout directory for one instance.
func (w *Workspace) InstanceDir(instance stats.Instance) string {
	return filepath.Join(w.Root, string(instance))
}

// SandboxProfile locates the sandbox profile for this job.
func (w *Workspace) SandboxProfile() string {
	name := w.JobName
	if name == "" {
		name = "default"
	}
	return filepath.Join(w.Root, "sandbox", name+".sb")
}

// Provision prepares one instance checkout at the given ref. Unless reuse is
// set, any existing checkout is discarded and cloned fresh.
func (w *Workspace) Provision(ctx context.Context, instance stats.Instance, ref string, reuse bool) error {
	dir := w.InstanceDir(instance)
	if reuse {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			return fmt.Errorf("reuse requested but checkout %s is missing", dir)
		}
	} else {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clear instance dir %s: %w", dir, err)
		}
		if err := w.Runner.Run(ctx, w.Root, "git", "clone", w.RepoURL, dir); err != nil {
			return fmt.Errorf("clone %s instance: %w", instance, err)
		}
	}
	if err := w.Runner.Run(ctx, dir, "git", "fetch", "origin", ref); err != nil {
		return fmt.Errorf("fetch %s for %s instance: %w", ref, instance, err)
	}
	if err := w.Runner.Run(ctx, dir, "git", "checkout", ref); err != nil {
		return fmt.Errorf("checkout %s for %s instance: %w", ref, instance, err)
	}
	return nil
}

// Build compiles the instance's toolchain with the configured build command.
func (w *Workspace) Build(ctx context.Context, instance stats.Instance, buildCmd string) error {
	dir := w.InstanceDir(instance)
	if err := w.Runner.Run(ctx, dir, buildCmd); err != nil {
		return fmt.Errorf("build %s toolchain: %w", instance, err)
	}
	return nil
}

// ToolchainBin locates the built toolchain driver inside an instance
// checkout, handed to the benchmark harness.
func (w *Workspace) ToolchainBin(instance stats.Instance) string {
	return filepath.Join(w.InstanceDir(instance), "build", "bin", "compiler-driver")
}
