package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/codereview/internal/logger"
	"github.com/samvad-hq/codereview/pkg/httpclient"
)

const (
	openRouterReferer = "http://localhost:8000"
	openRouterTitle   = "AI Code Review Tool"
)

// OpenRouterConfig configures the OpenRouter chat completions provider.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenRouter calls an OpenAI-compatible chat completions endpoint.
type OpenRouter struct {
	cfg    OpenRouterConfig
	client *resty.Client
	log    logger.Logger
}

// NewOpenRouter builds the provider. A missing key is reported per call.
func NewOpenRouter(cfg OpenRouterConfig, log logger.Logger) *OpenRouter {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &OpenRouter{
		cfg:    cfg,
		client: httpclient.NewRestyHTTPClient(cfg.Timeout),
		log:    logger.Ensure(log),
	}
}

func (o *OpenRouter) Name() string  { return "openrouter" }
func (o *OpenRouter) Model() string { return o.cfg.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// choiceMessage keeps absent keys distinguishable from empty values.
type choiceMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type chatResponse struct {
	Choices *[]struct {
		Message *choiceMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the first choice.
func (o *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	if o.cfg.APIKey == "" {
		return "", internalErrorf("API key not configured")
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetAuthToken(o.cfg.APIKey).
		SetHeader("HTTP-Referer", openRouterReferer).
		SetHeader("X-Title", openRouterTitle).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:       o.cfg.Model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: o.cfg.Temperature,
			MaxTokens:   o.cfg.MaxTokens,
		}).
		Post(o.cfg.BaseURL + "/chat/completions")
	if err != nil {
		if isTimeout(err) {
			return "", &StatusError{
				StatusCode: http.StatusGatewayTimeout,
				Detail:     "Request timeout - AI model took too long to respond",
				Err:        err,
			}
		}
		return "", internalErrorf("Network error: %v", err)
	}

	o.log.DebugObj("openrouter response", "llm_response_meta", map[string]any{
		"status": resp.StatusCode(),
		"bytes":  len(resp.Body()),
		"model":  o.cfg.Model,
	})

	if resp.StatusCode() != http.StatusOK {
		o.log.WarnObj("openrouter returned error status", "llm_error", map[string]any{
			"status": resp.StatusCode(),
			"body":   string(resp.Body()),
		})
		return "", statusErrorf(resp.StatusCode(), "OpenRouter API error: %s", string(resp.Body()))
	}

	return parseChatResponse(resp.Body())
}

func parseChatResponse(body []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", internalErrorf("Invalid API response structure: %v", err)
	}
	if parsed.Choices == nil {
		if parsed.Error != nil {
			msg := parsed.Error.Message
			if msg == "" {
				msg = "Unknown error"
			}
			return "", internalErrorf("API Error: %s", msg)
		}
		return "", internalErrorf("Unexpected API response format: %s", string(body))
	}
	if len(*parsed.Choices) == 0 {
		return "", internalErrorf("API returned empty choices")
	}
	msg := (*parsed.Choices)[0].Message
	if msg == nil {
		return "", internalErrorf("Invalid API response structure: missing key 'message'")
	}
	if msg.Content == nil {
		return "", internalErrorf("Invalid API response structure: missing key 'content'")
	}
	return *msg.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Provider = (*OpenRouter)(nil)
