// Package reviewapi is the client for the code analysis backend.
//
// AnalyzeCode surfaces every failure as an *Error with a message fit for end
// users. CheckHealth never fails: anything short of a healthy answer is
// reported as the offline status.
package reviewapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/codereview/pkg/httpclient"
)

const (
	analyzePath = "/api/analyze"
	healthPath  = "/health"
)

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}

// Config carries the settings injected at construction time.
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:8000. Required.
	BaseURL string
	// Timeout bounds each request. Zero keeps the transport default.
	Timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the resty-backed transport.
func WithHTTPClient(hc httpclient.JSONClient) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client talks to the analysis backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    httpclient.JSONClient
	log     Logger
}

// New validates cfg and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}

	c := &Client{
		baseURL: base,
		log:     noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(cfg.Timeout)
	}
	return c, nil
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// AnalyzeCode submits code for review and returns the backend's answer untouched.
func (c *Client) AnalyzeCode(ctx context.Context, code, language string) (AnalysisResult, error) {
	req := AnalysisRequest{Code: code, Language: language}
	resp, err := c.http.PostJSON(ctx, c.baseURL+analyzePath, req, nil)
	if err != nil {
		apiErr := toError(err)
		c.log.DebugObj("analyze request failed", "analyze_error", map[string]any{
			"kind":   apiErr.Kind.String(),
			"status": apiErr.StatusCode,
			"cause":  errorString(apiErr.Err),
		})
		return nil, apiErr
	}

	body := resp.Body()
	c.log.DebugObj("analyze request completed", "analyze_meta", map[string]any{
		"language":   language,
		"code_chars": len(code),
		"status":     resp.StatusCode(),
		"body_bytes": len(body),
	})
	return AnalysisResult(body), nil
}

// CheckHealth pings the backend. Every failure is reported as Offline().
func (c *Client) CheckHealth(ctx context.Context) HealthStatus {
	resp, err := c.http.Get(ctx, c.baseURL+healthPath, map[string]string{"Accept": "application/json"})
	if err != nil {
		c.log.DebugObj("health check failed", "health_error", errorString(err))
		return Offline()
	}

	body := resp.Body()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.log.DebugObj("health payload not a json object", "health_error", err.Error())
		return Offline()
	}
	if fields == nil {
		c.log.DebugObj("health payload is null", "health_error", string(body))
		return Offline()
	}

	// The payload is passed through as is; Status is filled only when it is a string.
	status := HealthStatus{Raw: append(json.RawMessage(nil), body...)}
	if raw, ok := fields["status"]; ok {
		_ = json.Unmarshal(raw, &status.Status)
	}
	return status
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("reviewapi: base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("reviewapi: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("reviewapi: base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("reviewapi: base url %q has no host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
