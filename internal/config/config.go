package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported LLM providers for the analysis backend.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL        string        `mapstructure:"api_base_url"`
	APITimeoutSeconds int64         `mapstructure:"api_timeout_seconds"`
	APITimeout        time.Duration `mapstructure:"-"`

	ServerAddr        string   `mapstructure:"server_addr"`
	AllowedOriginsRaw string   `mapstructure:"allowed_origins"`
	AllowedOrigins    []string `mapstructure:"-"`

	LLMProvider       string        `mapstructure:"llm_provider"`
	OpenRouterAPIKey  string        `mapstructure:"openrouter_api_key"`
	OpenRouterBaseURL string        `mapstructure:"openrouter_base_url"`
	OpenRouterModel   string        `mapstructure:"openrouter_model"`
	OllamaHost        string        `mapstructure:"ollama_host"`
	OllamaModel       string        `mapstructure:"ollama_model"`
	LLMTimeoutSeconds int64         `mapstructure:"llm_timeout_seconds"`
	LLMTemperature    float64       `mapstructure:"llm_temperature"`
	LLMMaxTokens      int           `mapstructure:"llm_max_tokens"`
	LLMTimeout        time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "codereview")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "")
	v.SetDefault("api_timeout_seconds", 0) // transport default
	v.SetDefault("server_addr", ":8000")
	v.SetDefault("allowed_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("llm_provider", ProviderOpenRouter)
	v.SetDefault("openrouter_api_key", "")
	v.SetDefault("openrouter_base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter_model", "tngtech/deepseek-r1t2-chimera:free")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("ollama_model", "codellama")
	v.SetDefault("llm_timeout_seconds", 120)
	v.SetDefault("llm_temperature", 0.3)
	v.SetDefault("llm_max_tokens", 2000)
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/analyses.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	// The frontend shipped its backend address as VITE_API_URL; keep honouring it.
	if err := v.BindEnv("api_base_url", "API_BASE_URL", "VITE_API_URL"); err != nil {
		return nil, fmt.Errorf("bind api_base_url: %w", err)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.APIBaseURL = strings.TrimSpace(c.APIBaseURL)
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.OpenRouterAPIKey = strings.TrimSpace(c.OpenRouterAPIKey)

	if c.APITimeoutSeconds < 0 {
		return fmt.Errorf("invalid api_timeout_seconds (must not be negative)")
	}
	c.APITimeout = time.Duration(c.APITimeoutSeconds) * time.Second

	if c.LLMTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid llm_timeout_seconds (must be positive seconds)")
	}
	c.LLMTimeout = time.Duration(c.LLMTimeoutSeconds) * time.Second

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	c.AllowedOrigins = splitList(c.AllowedOriginsRaw)
	return nil
}

// ValidateClient checks the settings the API client needs.
func (c *Config) ValidateClient() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	return ValidateBaseURL(c.APIBaseURL)
}

// ValidateServer checks the settings the analysis backend needs.
func (c *Config) ValidateServer() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if strings.TrimSpace(c.ServerAddr) == "" {
		return errors.New("server_addr is required")
	}
	switch c.LLMProvider {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return errors.New("openrouter_api_key is required for the openrouter provider")
		}
		if err := ValidateBaseURL(c.OpenRouterBaseURL); err != nil {
			return fmt.Errorf("openrouter_base_url: %w", err)
		}
	case ProviderOllama:
		if err := ValidateBaseURL(c.OllamaHost); err != nil {
			return fmt.Errorf("ollama_host: %w", err)
		}
	default:
		return fmt.Errorf("unsupported llm_provider %q", c.LLMProvider)
	}
	return nil
}

// ValidateBaseURL rejects empty, relative or non-HTTP addresses.
func ValidateBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("base url %q has no host", raw)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
