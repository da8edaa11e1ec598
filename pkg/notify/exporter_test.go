package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/toolchainperf/compilebench/pkg/schema"
)

func sampleNotice() schema.RegressionNotice {
	return schema.RegressionNotice{
		Branch:        "pr-42",
		Suite:         "full",
		Timestamp:     time.Now().UTC(),
		Regressed:     true,
		FailedModules: []string{"Bar"},
		ReportPath:    "/workspace/report.md",
	}
}

func TestSendNotice(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = body
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	e := New(server.URL, "", 5000)
	if err := e.Send(sampleNotice()); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var notice schema.RegressionNotice
	if err := json.Unmarshal(received, &notice); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if notice.Branch != "pr-42" || !notice.Regressed {
		t.Errorf("unexpected notice: %+v", notice)
	}
}

func TestSendWithHMACSignature(t *testing.T) {
	secret := "test-secret-key"
	var signature string
	var body []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Webhook-Signature")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	e := New(server.URL, secret, 5000)
	if err := e.Send(sampleNotice()); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if signature == "" {
		t.Fatal("expected signature header")
	}
	if !VerifyHMAC(body, secret, signature) {
		t.Fatal("HMAC verification failed")
	}
}

func TestRetryOn5xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			t.Fatalf("read request body: %v", err)
		}
		count := atomic.AddInt32(&attempts, 1)
		if count < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	e := New(server.URL, "", 5000)
	e.MaxRetry = 3
	if err := e.Send(sampleNotice()); err != nil {
		t.Fatalf("send should succeed after retries: %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	e := New(server.URL, "", 5000)
	if err := e.Send(sampleNotice()); err == nil {
		t.Fatal("expected error on 4xx")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", attempts)
	}
}

func TestSendRejectsInvalidNotice(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notice := sampleNotice()
	notice.Suite = "nightly" // not in the contract
	e := New(server.URL, "", 5000)
	if err := e.Send(notice); err == nil {
		t.Fatal("expected contract validation error")
	}
	if atomic.LoadInt32(&attempts) != 0 {
		t.Error("invalid notice must not reach the endpoint")
	}
}
