package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/codereview/internal/logger"
)

func newTestOpenRouter(url string, timeout time.Duration) *OpenRouter {
	return NewOpenRouter(OpenRouterConfig{
		APIKey:      "sk-test",
		BaseURL:     url + "/",
		Model:       "test-model",
		Temperature: 0.3,
		MaxTokens:   2000,
		Timeout:     timeout,
	}, nil)
}

func requireStatus(t *testing.T, err error, status int, detailPrefix string) {
	t.Helper()
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != status || !strings.HasPrefix(se.Detail, detailPrefix) {
		t.Fatalf("got status=%d detail=%q, want %d %q", se.StatusCode, se.Detail, status, detailPrefix)
	}
}

func TestOpenRouterComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Title") == "" || r.Header.Get("HTTP-Referer") == "" {
			t.Errorf("attribution headers missing")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.MaxTokens != 2000 {
			t.Errorf("unexpected request %#v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"looks good"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestOpenRouter(srv.URL, time.Second).Complete(context.Background(), "review this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "looks good" {
		t.Fatalf("out = %q", out)
	}
}

func TestOpenRouterErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   int
		detail string
	}{
		{"upstream status", http.StatusTooManyRequests, `rate limited`, http.StatusTooManyRequests, "OpenRouter API error: rate limited"},
		{"error payload", http.StatusOK, `{"error":{"message":"quota"}}`, http.StatusInternalServerError, "API Error: quota"},
		{"missing choices", http.StatusOK, `{"id":"x"}`, http.StatusInternalServerError, "Unexpected API response format"},
		{"empty choices", http.StatusOK, `{"choices":[]}`, http.StatusInternalServerError, "API returned empty choices"},
		{"not json", http.StatusOK, `<html>`, http.StatusInternalServerError, "Invalid API response structure"},
		{"choice without message", http.StatusOK, `{"choices":[{"index":0}]}`, http.StatusInternalServerError, "Invalid API response structure: missing key 'message'"},
		{"message without content", http.StatusOK, `{"choices":[{"message":{"role":"assistant"}}]}`, http.StatusInternalServerError, "Invalid API response structure: missing key 'content'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestOpenRouter(srv.URL, time.Second).Complete(context.Background(), "p")
			requireStatus(t, err, tc.want, tc.detail)
		})
	}
}

func TestOpenRouterTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestOpenRouter(srv.URL, 50*time.Millisecond).Complete(context.Background(), "p")
	requireStatus(t, err, http.StatusGatewayTimeout, "Request timeout")
}

func TestOpenRouterMissingKey(t *testing.T) {
	p := NewOpenRouter(OpenRouterConfig{BaseURL: "http://localhost:1"}, nil)
	_, err := p.Complete(context.Background(), "p")
	requireStatus(t, err, http.StatusInternalServerError, "API key not configured")
}

func TestOllamaComplete(t *testing.T) {
	o := &Ollama{
		model: "codellama",
		generate: func(model, system, prompt string) (bool, string, error) {
			if model != "codellama" || system == "" || prompt != "p" {
				t.Errorf("unexpected call %q %q %q", model, system, prompt)
			}
			return true, "```\n/** docs */\n```", nil
		},
		log: logger.NopLogger{},
	}

	out, err := o.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "/** docs */" {
		t.Fatalf("out = %q", out)
	}
}

func TestOllamaFailures(t *testing.T) {
	cases := map[string]generateFunc{
		"error":     func(string, string, string) (bool, string, error) { return false, "", errors.New("refused") },
		"not done":  func(string, string, string) (bool, string, error) { return false, "partial", nil },
		"empty out": func(string, string, string) (bool, string, error) { return true, "``` ```", nil },
	}
	for name, gen := range cases {
		o := &Ollama{model: "m", generate: gen, log: logger.NopLogger{}}
		if _, err := o.Complete(context.Background(), "p"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := &Ollama{model: "m", generate: cases["error"], log: logger.NopLogger{}}
	if _, err := o.Complete(ctx, "p"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
