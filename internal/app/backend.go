package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/codereview/internal/config"
	"github.com/samvad-hq/codereview/internal/llm"
	"github.com/samvad-hq/codereview/internal/logger"
	"github.com/samvad-hq/codereview/internal/review"
	"github.com/samvad-hq/codereview/internal/server"
	"github.com/samvad-hq/codereview/internal/storage"
	"github.com/samvad-hq/codereview/pkg/publishers"
)

const shutdownTimeout = 15 * time.Second

// Backend represents the analysis backend runtime. It owns the HTTP server,
// the LLM provider, the optional publisher fanout and the dedupe store.
type Backend struct {
	cfg     *config.Config
	fanout  *publishers.Fanout
	store   storage.Store
	httpSrv *http.Server
	log     logger.Logger
}

// NewBackend builds a backend runtime from config.
func NewBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	provider, err := newProvider(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	log.InfoObj("llm provider ready", "provider_meta", map[string]any{
		"name":  provider.Name(),
		"model": provider.Model(),
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		AnalysisTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"analysis_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var events review.EventPublisher
	if fanout.Size() > 0 {
		events = fanout
	}
	svc, err := review.NewService(provider, events, store, log)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init review service: %w", err)
	}

	srv, err := server.New(svc, server.Options{AllowedOrigins: cfg.AllowedOrigins}, log)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return &Backend{
		cfg:    cfg,
		fanout: fanout,
		store:  store,
		httpSrv: &http.Server{
			Addr:              cfg.ServerAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// Two sequential LLM calls must fit inside one response.
			WriteTimeout: 2*cfg.LLMTimeout + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		log: log,
	}, nil
}

// newProvider selects the configured LLM provider.
func newProvider(cfg *config.Config, log logger.Logger) (llm.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case config.ProviderOpenRouter:
		return llm.NewOpenRouter(llm.OpenRouterConfig{
			APIKey:      cfg.OpenRouterAPIKey,
			BaseURL:     cfg.OpenRouterBaseURL,
			Model:       cfg.OpenRouterModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,
		}, log), nil
	case config.ProviderOllama:
		return llm.NewOllama(cfg.OllamaHost, cfg.OllamaModel, log)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

// buildFanout loads the publishers file. No file means no downstream events.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		log.InfoObj("no publishers file configured; analysis events disabled", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run listens on the configured address until the context is cancelled.
func (b *Backend) Run(ctx context.Context) error {
	if b == nil || b.httpSrv == nil {
		return fmt.Errorf("backend is not initialized")
	}
	ln, err := net.Listen("tcp", b.httpSrv.Addr)
	if err != nil {
		b.close()
		return fmt.Errorf("listen %s: %w", b.httpSrv.Addr, err)
	}
	return b.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context is cancelled, then drains
// in-flight requests and releases the publishers and the store.
func (b *Backend) Serve(ctx context.Context, ln net.Listener) error {
	if b == nil || b.httpSrv == nil {
		return fmt.Errorf("backend is not initialized")
	}
	defer b.close()

	b.log.InfoObj("http server listening", "server_state", map[string]any{
		"addr":            ln.Addr().String(),
		"allowed_origins": b.cfg.AllowedOrigins,
		"publishers":      b.fanout.Size(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	case <-ctx.Done():
		b.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

// close releases the publishers and the store, logging any errors encountered.
func (b *Backend) close() {
	if err := b.fanout.Close(); err != nil {
		b.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if b.store == nil {
		return
	}
	if err := b.store.Close(); err != nil {
		b.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
