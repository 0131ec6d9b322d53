package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haasonsaas/hr-agent/internal/agent"
	"github.com/haasonsaas/hr-agent/internal/config"
	"github.com/haasonsaas/hr-agent/internal/observability"
)

func TestRequestIDGenerated(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, &echoRuntime{})
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRequestIDHonored(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, &echoRuntime{})
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.Header.Set("X-Request-ID", "caller-supplied-id")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "caller-supplied-id" {
		t.Errorf("X-Request-ID = %q, want caller-supplied-id", got)
	}
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, &echoRuntime{})
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.Header.Set("Origin", "http://example.com")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, &echoRuntime{})
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/chat", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /chat error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing Access-Control-Allow-Methods")
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.CORSOrigins = []string{"http://allowed.example"}

	logger := observability.NewLogger(observability.LogConfig{Level: "error", Format: "text"})
	srv, err := NewServer(Options{
		Config: cfg,
		Client: agent.NewClient(&echoRuntime{}, "", logger, nil),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}
