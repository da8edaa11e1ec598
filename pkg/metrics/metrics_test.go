package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassificationAndVerdictGauges(t *testing.T) {
	m := New()
	m.SetClassification(120, 3)
	m.SetRegressed(true)
	m.AddHarnessFailures(2)
	m.ObservePhase("build", 90*time.Second)

	if got := testutil.ToFloat64(m.modulesPassed); got != 120 {
		t.Fatalf("modules passed = %f", got)
	}
	if got := testutil.ToFloat64(m.modulesFailed); got != 3 {
		t.Fatalf("modules failed = %f", got)
	}
	if got := testutil.ToFloat64(m.regressed); got != 1 {
		t.Fatalf("regressed = %f", got)
	}
	if got := testutil.ToFloat64(m.harnessFailures); got != 2 {
		t.Fatalf("harness failures = %f", got)
	}
}

func TestPushSendsGroupedJob(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := New()
	m.SetRegressed(false)
	if err := m.Push(server.URL, "compile-perf-pr", "pr-42"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if !strings.Contains(path, "/job/compile-perf-pr") || !strings.Contains(path, "/branch/pr-42") {
		t.Fatalf("unexpected push path: %s", path)
	}
}

func TestPushDisabledWithoutGateway(t *testing.T) {
	m := New()
	if err := m.Push("", "job", "branch"); err != nil {
		t.Fatalf("push with empty gateway must be a no-op, got %v", err)
	}
}
