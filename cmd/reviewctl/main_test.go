package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLanguageFor(t *testing.T) {
	cases := map[string]string{
		"main.go":        "go",
		"script.PY":      "python",
		"src/app.tsx":    "typescript",
		"README":         "",
		"notes.markdown": "",
	}
	for path, want := range cases {
		if got := languageFor(path); got != want {
			t.Fatalf("languageFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestAnalyzeFileInfersLanguage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"review":"ok","docstring":"doc","language":"python"}`))
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "snippet.py")
	if err := os.WriteFile(file, []byte("print(1)"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	out, err := execute(t, "", "analyze", file, "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got["language"] != "python" || got["code"] != "print(1)" {
		t.Fatalf("unexpected request %#v", got)
	}
	if !strings.Contains(out, "## Review (python)") || !strings.Contains(out, "doc") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAnalyzeStdinJSONOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"review":"r","docstring":"d","language":"go","extra":1}`))
	}))
	defer srv.Close()

	out, err := execute(t, "package main", "analyze", "-l", "go", "-o", "json", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	if decoded["extra"] != float64(1) {
		t.Fatalf("extra field lost: %#v", decoded)
	}
}

func TestAnalyzeSurfacesServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Code cannot be empty"}`))
	}))
	defer srv.Close()

	_, err := execute(t, " ", "analyze", "-l", "go", "--api-url", srv.URL)
	if err == nil || err.Error() != "Code cannot be empty" {
		t.Fatalf("expected server detail, got %v", err)
	}
}

func TestAnalyzeRequiresLanguage(t *testing.T) {
	_, err := execute(t, "x", "analyze", "--api-url", "http://127.0.0.1:1")
	if err == nil || !strings.Contains(err.Error(), "--language") {
		t.Fatalf("expected language error, got %v", err)
	}
}

func TestAnalyzeRejectsUnknownOutput(t *testing.T) {
	_, err := execute(t, "x", "analyze", "-l", "go", "-o", "yaml", "--api-url", "http://127.0.0.1:1")
	if err == nil || !strings.Contains(err.Error(), "--output") {
		t.Fatalf("expected output format error, got %v", err)
	}
}

func TestHealthOnlineAndOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","model":"m"}`))
	}))

	out, err := execute(t, "", "health", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if strings.TrimSpace(out) != `{"status":"healthy","model":"m"}` {
		t.Fatalf("unexpected output %q", out)
	}

	url := srv.URL
	srv.Close()
	out, err = execute(t, "", "health", "--api-url", url)
	if !errors.Is(err, errOffline) {
		t.Fatalf("expected errOffline, got %v", err)
	}
	if strings.TrimSpace(out) != `{"status":"offline"}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLoggerClosedAfterCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	closes := 0
	prev := closeLogger
	closeLogger = func() { closes++ }
	t.Cleanup(func() { closeLogger = prev })

	if _, err := execute(t, "", "health", "--api-url", srv.URL); err != nil {
		t.Fatalf("health: %v", err)
	}
	if closes != 1 {
		t.Fatalf("logger closed %d times, want 1", closes)
	}
}

func TestHealthNullPayloadIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	if _, err := execute(t, "", "health", "--api-url", srv.URL); !errors.Is(err, errOffline) {
		t.Fatalf("expected errOffline for a null payload, got %v", err)
	}
}
