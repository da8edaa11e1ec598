package workspace

import (
	"encoding/json"
	"os"
	"os/exec"
	"runtime"
	"time"
)

const (
	severityBlocker = "blocker"
	severityWarning = "warning"
)

// CheckResult is one prerequisite evaluation row.
type CheckResult struct {
	Name        string `json:"name"`
	Pass        bool   `json:"pass"`
	Severity    string `json:"severity"`
	Current     string `json:"current"`
	Required    string `json:"required"`
	Remediation string `json:"remediation"`
}

// CheckReport is the full host prerequisite result.
type CheckReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	HostOS      string        `json:"host_os"`
	HostArch    string        `json:"host_arch"`
	Checks      []CheckResult `json:"checks"`
	Pass        bool          `json:"pass"`
}

// Snapshot captures host facts before evaluation.
type Snapshot struct {
	HostOS        string
	HostArch      string
	WorkspaceRoot string
	HasGit        bool
	HasHarness    bool
	HasDeltaTool  bool
}

// CollectSnapshot gathers host facts from the current process environment.
func CollectSnapshot(harness string, deltaTool string) Snapshot {
	return Snapshot{
		HostOS:        runtime.GOOS,
		HostArch:      runtime.GOARCH,
		WorkspaceRoot: os.Getenv(EnvWorkspace),
		HasGit:        hasBinary("git"),
		HasHarness:    hasBinary(harness),
		HasDeltaTool:  hasBinary(deltaTool),
	}
}

// Evaluate returns a report with pass/fail checks. Blockers abort the run.
func Evaluate(snapshot Snapshot) CheckReport {
	checks := []CheckResult{
		{
			Name:        "host_platform",
			Pass:        snapshot.HostOS == "linux" || snapshot.HostOS == "darwin",
			Severity:    severityBlocker,
			Current:     snapshot.HostOS,
			Required:    "linux|darwin",
			Remediation: "Run the driver on a Linux or macOS CI host.",
		},
		{
			Name:        "workspace_root",
			Pass:        dirExists(snapshot.WorkspaceRoot),
			Severity:    severityBlocker,
			Current:     snapshot.WorkspaceRoot,
			Required:    "existing directory",
			Remediation: "Export " + EnvWorkspace + " pointing at the CI workspace root.",
		},
		{
			Name:        "git_installed",
			Pass:        snapshot.HasGit,
			Severity:    severityBlocker,
			Current:     boolLabel(snapshot.HasGit),
			Required:    "true",
			Remediation: "Install git on the CI host.",
		},
		{
			Name:        "harness_installed",
			Pass:        snapshot.HasHarness,
			Severity:    severityBlocker,
			Current:     boolLabel(snapshot.HasHarness),
			Required:    "true",
			Remediation: "Install the benchmark harness or set tools.harness in the driver config.",
		},
		{
			Name:        "delta_tool_installed",
			Pass:        snapshot.HasDeltaTool,
			Severity:    severityWarning,
			Current:     boolLabel(snapshot.HasDeltaTool),
			Required:    "true",
			Remediation: "Install the delta table tool; the driver falls back to tools.delta_tool from config.",
		},
	}

	pass := true
	for _, check := range checks {
		if check.Severity == severityBlocker && !check.Pass {
			pass = false
			break
		}
	}

	return CheckReport{
		GeneratedAt: time.Now().UTC(),
		HostOS:      snapshot.HostOS,
		HostArch:    snapshot.HostArch,
		Checks:      checks,
		Pass:        pass,
	}
}

// MarshalCheckReport returns pretty JSON for external reporting.
func MarshalCheckReport(report CheckReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

func hasBinary(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
