// Package review turns a code snippet into a review and generated documentation.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/codereview/internal/llm"
	"github.com/samvad-hq/codereview/internal/logger"
	"github.com/samvad-hq/codereview/pkg/publishers"
)

// ErrEmptyCode is returned when the submitted code is blank.
var ErrEmptyCode = errors.New("code cannot be empty")

// Result is the analysis payload returned to clients.
type Result struct {
	Review    string `json:"review"`
	Docstring string `json:"docstring"`
	Language  string `json:"language"`
}

// EventPublisher publishes analysis events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper claims analysis fingerprints so repeated submissions are announced once.
type Deduper interface {
	Claim(key string) (bool, error)
}

// Service runs the review and documentation prompts.
type Service struct {
	provider  llm.Provider
	publisher EventPublisher
	dedupe    Deduper
	log       logger.Logger
}

// NewService builds a Service. publisher and dedupe may be nil.
func NewService(provider llm.Provider, publisher EventPublisher, dedupe Deduper, log logger.Logger) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider must not be nil")
	}
	return &Service{
		provider:  provider,
		publisher: publisher,
		dedupe:    dedupe,
		log:       logger.Ensure(log),
	}, nil
}

// Model reports the model behind the service.
func (s *Service) Model() string { return s.provider.Model() }

// Analyze reviews and documents code. The review runs first, then the documentation.
func (s *Service) Analyze(ctx context.Context, code, language string) (Result, error) {
	if strings.TrimSpace(code) == "" {
		return Result{}, ErrEmptyCode
	}

	start := time.Now()
	s.log.InfoObj("analysis started", "analysis_meta", map[string]any{
		"language":   language,
		"code_chars": len([]rune(code)),
		"provider":   s.provider.Name(),
	})

	reviewText, err := s.provider.Complete(ctx, reviewPrompt(code, language))
	if err != nil {
		return Result{}, fmt.Errorf("generate review: %w", err)
	}

	docText, err := s.provider.Complete(ctx, docstringPrompt(code, language))
	if err != nil {
		return Result{}, fmt.Errorf("generate docstring: %w", err)
	}

	res := Result{Review: reviewText, Docstring: docText, Language: language}
	s.log.InfoObj("analysis completed", "analysis_meta", map[string]any{
		"language":   language,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	s.announce(ctx, code, res)
	return res, nil
}

// announce publishes the analysis.completed event. Failures are logged only.
func (s *Service) announce(ctx context.Context, code string, res Result) {
	if s.publisher == nil {
		return
	}

	if s.dedupe != nil {
		fresh, err := s.dedupe.Claim(publishers.Fingerprint(res.Language, code))
		if err != nil {
			s.log.WarnObj("analysis dedupe failed; publishing anyway", "error", err.Error())
		} else if !fresh {
			s.log.DebugObj("analysis already announced", "language", res.Language)
			return
		}
	}

	evt := publishers.NewEvent(publishers.Analysis{
		Language:  res.Language,
		Code:      code,
		Review:    res.Review,
		Docstring: res.Docstring,
		Provider:  s.provider.Name(),
		Model:     s.provider.Model(),
	})
	delivered, err := s.publisher.Publish(ctx, evt)
	if err != nil {
		s.log.ErrorObj("analysis event publish failed", "publish_result", map[string]any{
			"event_id":  evt.ID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	s.log.DebugObj("analysis event published", "publish_result", map[string]any{
		"event_id":  evt.ID,
		"delivered": delivered,
	})
}
