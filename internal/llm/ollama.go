package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/JexSrs/go-ollama"
	"github.com/samvad-hq/codereview/internal/logger"
)

const ollamaSystemPrompt = "You are a senior software engineer who reviews and documents code."

// generateFunc runs one non-streaming generation.
type generateFunc func(model, system, prompt string) (done bool, text string, err error)

// Ollama runs prompts against a local Ollama server.
type Ollama struct {
	model    string
	generate generateFunc
	log      logger.Logger
}

// NewOllama connects to the Ollama server at host.
func NewOllama(host, model string, log logger.Logger) (*Ollama, error) {
	u, err := url.Parse(strings.TrimSpace(host))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}
	client := ollama.New(*u)

	return &Ollama{
		model: model,
		generate: func(model, system, prompt string) (bool, string, error) {
			res, err := client.Generate(
				client.Generate.WithModel(model),
				client.Generate.WithSystem(system),
				client.Generate.WithPrompt(prompt),
			)
			if err != nil {
				return false, "", err
			}
			return res.Done, res.Response, nil
		},
		log: logger.Ensure(log),
	}, nil
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

// Complete runs prompt and strips code fences the model sometimes wraps around its answer.
// The underlying client takes no context, so cancellation is only checked up front.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	done, text, err := o.generate(o.model, ollamaSystemPrompt, prompt)
	if err != nil {
		return "", internalErrorf("Ollama generate failed: %v", err)
	}
	if !done {
		return "", internalErrorf("Ollama generation did not complete")
	}

	text = strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "`"))
	if text == "" {
		return "", internalErrorf("Ollama returned an empty response")
	}
	o.log.DebugObj("ollama response", "llm_response_meta", map[string]any{
		"model": o.model,
		"chars": len(text),
	})
	return text, nil
}

var _ Provider = (*Ollama)(nil)
