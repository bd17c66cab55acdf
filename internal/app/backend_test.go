package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/codereview/internal/config"
	"github.com/samvad-hq/codereview/internal/logger"
)

func testConfig(t *testing.T, llmURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerAddr:             "127.0.0.1:0",
		AllowedOrigins:         []string{"http://localhost:5173"},
		LLMProvider:            config.ProviderOpenRouter,
		OpenRouterAPIKey:       "test-key",
		OpenRouterBaseURL:      llmURL,
		OpenRouterModel:        "test/model",
		LLMTimeout:             5 * time.Second,
		LLMTemperature:         0.3,
		LLMMaxTokens:           100,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(t.TempDir(), "analyses.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func fakeOpenRouter(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected llm path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"looks fine"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func startBackend(t *testing.T, cfg *config.Config) (string, func() error) {
	t.Helper()
	b, err := NewBackend(context.Background(), cfg, &logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx, ln) }()

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatalf("backend did not shut down")
			return nil
		}
	}
	return "http://" + ln.Addr().String(), stop
}

func TestBackendServesAndShutsDown(t *testing.T) {
	llmSrv := fakeOpenRouter(t)
	base, stop := startBackend(t, testConfig(t, llmSrv.URL))

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var health map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health["status"] != "healthy" || health["model"] != "test/model" {
		t.Fatalf("unexpected health %#v", health)
	}

	resp, err = http.Post(base+"/api/analyze", "application/json", strings.NewReader(`{"code":"print(1)","language":"python"}`))
	if err != nil {
		t.Fatalf("POST /api/analyze: %v", err)
	}
	var out map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || out["review"] != "looks fine" || out["docstring"] != "looks fine" {
		t.Fatalf("unexpected analysis %d %#v", resp.StatusCode, out)
	}

	if err := stop(); err != nil {
		t.Fatalf("Serve returned %v", err)
	}
}

func TestBackendPublishesAnalysisEventsOnce(t *testing.T) {
	var hits int32
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if got := r.Header.Get("X-Event-Type"); got != "analysis.completed" {
			t.Errorf("X-Event-Type = %q", got)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	pubFile := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := "publishers:\n  - id: sink\n    type: http\n    http:\n      url: " + sink.URL + "\n"
	if err := os.WriteFile(pubFile, []byte(raw), 0o600); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	cfg := testConfig(t, fakeOpenRouter(t).URL)
	cfg.PublishersFile = pubFile
	base, stop := startBackend(t, cfg)
	defer func() { _ = stop() }()

	for i := 0; i < 2; i++ {
		resp, err := http.Post(base+"/api/analyze", "application/json", strings.NewReader(`{"code":"x := 1","language":"go"}`))
		if err != nil {
			t.Fatalf("POST /api/analyze: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected one event for a repeated submission, got %d", got)
	}
}

func TestNewBackendRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.LLMProvider = "gpt-local"
	if _, err := NewBackend(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewBackendRejectsBadPublishersFile(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.PublishersFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewBackend(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing publishers file")
	}
}
