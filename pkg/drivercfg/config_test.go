package drivercfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "driver.yaml")
	content := `
apiVersion: compilebench.dev/v1alpha1
kind: DriverConfig
configurations:
  - debug-batch
  - release
suites:
  smoketest:
    corpus_subset: smoketest
    repetitions: 2
thresholds:
  delta_pct: 7
  delta_usec: 250000
tools:
  harness: /opt/bench/compile-bench-runner
source:
  repo_url: https://example.com/compiler.git
  old_ref: main
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Thresholds.DeltaPct != 7 {
		t.Fatalf("unexpected delta pct: %f", cfg.Thresholds.DeltaPct)
	}
	if cfg.Tools.Harness != "/opt/bench/compile-bench-runner" {
		t.Fatalf("unexpected harness: %s", cfg.Tools.Harness)
	}
	if cfg.Tools.DeltaTool != "process-stats-dir" {
		t.Fatalf("default delta tool not filled in: %s", cfg.Tools.DeltaTool)
	}
	if cfg.Suites["smoketest"].Repetitions != 2 {
		t.Fatalf("unexpected smoketest reps: %d", cfg.Suites["smoketest"].Repetitions)
	}
	if len(cfg.Configurations) != 2 {
		t.Fatalf("unexpected configuration count: %d", len(cfg.Configurations))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestNormalizeFillsZeroRepetitions(t *testing.T) {
	cfg := Default()
	cfg.Suites["full"] = Suite{CorpusSubset: "", Repetitions: 0}
	normalize(&cfg)
	if cfg.Suites["full"].Repetitions <= 0 {
		t.Fatalf("repetitions not normalized: %d", cfg.Suites["full"].Repetitions)
	}
}
