package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const (
	testSuite  = "full"
	testBranch = "pr-42"
)

func writeRecord(t *testing.T, root string, instance Instance, configuration string, module string, failures int64) {
	t.Helper()
	dir := filepath.Join(root, DirName(instance, VariantName(testSuite, testBranch, configuration)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stats dir: %v", err)
	}
	name := fmt.Sprintf("stats-1234-frontend-%s-abc123.json", module)
	content := fmt.Sprintf(`{"%s": %d, "time.wall": 100}`, CounterProcessFailures, failures)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}
}

func classify(root string, configurations ...string) Classification {
	return FindModuleStatuses(root, testSuite, testBranch, configurations)
}

func TestCleanModulePasses(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, InstanceOld, "debug-batch", "Foo", 0)
	writeRecord(t, root, InstanceNew, "debug-batch", "Foo", 0)

	c := classify(root, "debug-batch")
	if len(c.Passed) != 1 || c.Passed[0] != "Foo" {
		t.Fatalf("expected passed=[Foo], got %v", c.Passed)
	}
	if len(c.Failed) != 0 {
		t.Fatalf("expected no failures, got %v", c.Failed)
	}
}

func TestNonzeroFailureCounterFails(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, InstanceOld, "debug-batch", "Foo", 2)
	writeRecord(t, root, InstanceNew, "debug-batch", "Foo", 0)

	c := classify(root, "debug-batch")
	if len(c.Failed) != 1 || c.Failed[0] != "Foo" {
		t.Fatalf("expected failed=[Foo], got %v", c.Failed)
	}
	if len(c.Passed) != 0 {
		t.Fatalf("expected no passes, got %v", c.Passed)
	}
}

func TestModuleMissingFromOneInstanceFails(t *testing.T) {
	root := t.TempDir()
	// Zero failures on the old side, but the new toolchain never emitted
	// stats for Foo.
	writeRecord(t, root, InstanceOld, "debug-batch", "Foo", 0)
	if err := os.MkdirAll(filepath.Join(root, DirName(InstanceNew, VariantName(testSuite, testBranch, "debug-batch"))), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	c := classify(root, "debug-batch")
	if len(c.Failed) != 1 || c.Failed[0] != "Foo" {
		t.Fatalf("expected failed=[Foo], got %v", c.Failed)
	}
	if len(c.Passed) != 0 {
		t.Fatalf("expected no passes, got %v", c.Passed)
	}
}

func TestModuleMissingFromOneConfigurationFails(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, InstanceOld, "debug-batch", "Foo", 0)
	writeRecord(t, root, InstanceNew, "debug-batch", "Foo", 0)
	writeRecord(t, root, InstanceOld, "release", "Foo", 0)
	// Absent from release/new.

	c := classify(root, "debug-batch", "release")
	if len(c.Failed) != 1 || c.Failed[0] != "Foo" {
		t.Fatalf("expected failed=[Foo], got %v", c.Failed)
	}
}

func TestUnreadableRecordFailsWithoutCrash(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, InstanceNew, "debug-batch", "Foo", 0)

	dir := filepath.Join(root, DirName(InstanceOld, VariantName(testSuite, testBranch, "debug-batch")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	name := "stats-1234-frontend-Foo-abc123.json"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt record: %v", err)
	}

	c := classify(root, "debug-batch")
	if len(c.Failed) != 1 || c.Failed[0] != "Foo" {
		t.Fatalf("expected failed=[Foo], got %v", c.Failed)
	}
}

func TestTwoConfigurationScenario(t *testing.T) {
	root := t.TempDir()
	for _, configuration := range []string{"debug-batch", "release"} {
		for _, instance := range Instances {
			writeRecord(t, root, instance, configuration, "Foo", 0)
		}
	}
	writeRecord(t, root, InstanceOld, "debug-batch", "Bar", 0)
	writeRecord(t, root, InstanceNew, "debug-batch", "Bar", 1)
	writeRecord(t, root, InstanceOld, "release", "Bar", 0)
	writeRecord(t, root, InstanceNew, "release", "Bar", 0)

	c := classify(root, "debug-batch", "release")
	if len(c.Passed) != 1 || c.Passed[0] != "Foo" {
		t.Fatalf("expected passed=[Foo], got %v", c.Passed)
	}
	if len(c.Failed) != 1 || c.Failed[0] != "Bar" {
		t.Fatalf("expected failed=[Bar], got %v", c.Failed)
	}
}

func TestPartitionIsDisjointAndCovering(t *testing.T) {
	root := t.TempDir()
	modules := []string{"Alpha", "Beta", "Gamma", "Delta"}
	for idx, module := range modules {
		var failures int64
		if idx%2 == 1 {
			failures = 1
		}
		for _, instance := range Instances {
			writeRecord(t, root, instance, "debug-batch", module, failures)
		}
	}

	c := classify(root, "debug-batch")
	if len(c.Passed)+len(c.Failed) != len(modules) {
		t.Fatalf("partition does not cover all modules: passed=%v failed=%v", c.Passed, c.Failed)
	}
	overlap := make(map[string]bool)
	for _, module := range c.Passed {
		overlap[module] = true
	}
	for _, module := range c.Failed {
		if overlap[module] {
			t.Fatalf("module %s in both sets", module)
		}
	}
}

func TestModuleFromFilename(t *testing.T) {
	cases := []struct {
		name   string
		module string
	}{
		{"stats-1234-frontend-Foo-abc123.json", "Foo"},
		{"stats-99-driver-HTTPClient-deadbeef.json", "HTTPClient"},
		{"stats-1234-frontend-Foo-abc123.csv", ""},
		{"notes.json", ""},
		{"stats-frontend-Foo-abc.json", ""},
	}
	for _, tc := range cases {
		if got := ModuleFromFilename(tc.name); got != tc.module {
			t.Fatalf("ModuleFromFilename(%q) = %q, want %q", tc.name, got, tc.module)
		}
	}
}
