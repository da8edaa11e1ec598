package delta

import (
	"context"
	"strings"
	"testing"
)

type fakeRunner struct {
	name string
	args []string
	code int
	err  error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (int, error) {
	f.name = name
	f.args = args
	return f.code, f.err
}

func TestArgsCompareDirs(t *testing.T) {
	tool := Tool{Path: "process-stats-dir", DeltaPct: 5, DeltaUsec: 100000}
	args := tool.Args(Request{
		SelectStat: "time.wall",
		OldPath:    "stats-old-full-pr-42-release",
		NewPath:    "stats-new-full-pr-42-release",
		OutFile:    "full-pr-42-release.md",
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--compare-stats-dirs stats-old-full-pr-42-release stats-new-full-pr-42-release") {
		t.Fatalf("missing stats-dir pair: %s", joined)
	}
	if !strings.Contains(joined, "--delta-pct-thresh 5") {
		t.Fatalf("missing pct threshold: %s", joined)
	}
	if strings.Contains(joined, "--compare-to-csv-baseline") {
		t.Fatalf("unexpected baseline flag: %s", joined)
	}
}

func TestArgsBaselineMode(t *testing.T) {
	tool := Tool{Path: "process-stats-dir", DeltaPct: 5, DeltaUsec: 100000}
	args := tool.Args(Request{
		SelectStat:  "mem.peak",
		OldPath:     "stats-new-full-pr-42-release",
		BaselineCSV: "baselines/full-pr-42-release.csv",
		OutFile:     "baseline-full-pr-42-release.md",
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--compare-to-csv-baseline baselines/full-pr-42-release.csv stats-new-full-pr-42-release") {
		t.Fatalf("missing baseline args: %s", joined)
	}
}

func TestGenerateReturnsToolExitCode(t *testing.T) {
	runner := &fakeRunner{code: 3}
	tool := Tool{Path: "process-stats-dir", DeltaPct: 5, DeltaUsec: 100000, Runner: runner}

	code, err := tool.Generate(context.Background(), Request{SelectStat: "time.wall", OutFile: "out.md"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
	if runner.name != "process-stats-dir" {
		t.Fatalf("unexpected tool path: %s", runner.name)
	}
}
