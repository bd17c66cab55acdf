package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.JSONClient interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
// A zero timeout leaves the transport default in place.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, rawURL string, headers map[string]string) (Response, error) {
	if err := checkURL(rawURL); err != nil {
		return nil, &TransportError{Kind: KindSetupError, Err: err}
	}
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	return classify(req.Get(rawURL))
}

// PostJSON marshals body and POSTs it with a JSON content type.
func (r *RestyClient) PostJSON(ctx context.Context, rawURL string, body any, headers map[string]string) (Response, error) {
	if err := checkURL(rawURL); err != nil {
		return nil, &TransportError{Kind: KindSetupError, Err: err}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Kind: KindSetupError, Err: fmt.Errorf("marshal body: %w", err)}
	}

	req := r.client.R().
		SetContext(ctx).
		SetBody(payload)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	req.SetHeader("Content-Type", "application/json")
	req.SetHeader("Accept", "application/json")

	return classify(req.Execute(http.MethodPost, rawURL))
}

// classify turns a resty outcome into a Response or a *TransportError.
func classify(resp *resty.Response, err error) (Response, error) {
	if err != nil {
		return nil, &TransportError{Kind: KindNoResponse, Err: err}
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &TransportError{
			Kind:       KindServerError,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}
	return &restyResponseAdapter{resp: resp}, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
