package config

import (
	"errors"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"contractbot-backend/internal/shared/telemetry"
)

// Supported LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultMaxPDFBytes      int64 = 20 << 20
	DefaultMaxContractChars       = 80_000
	DefaultLLMTimeout             = 120 * time.Second
)

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-1.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-sonnet-4-20250514",
}

var credentialKeys = map[string]string{
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

var modelKeys = map[string]string{
	ProviderGemini:    "GEMINI_MODEL",
	ProviderOpenAI:    "OPENAI_MODEL",
	ProviderAnthropic: "ANTHROPIC_MODEL",
}

// Settings is the configuration consulted at the start of every analysis.
type Settings struct {
	Provider         string
	APIKey           string
	Model            string
	BaseURL          string
	Timeout          time.Duration
	MaxPDFBytes      int64
	MaxContractChars int
	// NoTemperatureModels lists models that must be called without a temperature.
	NoTemperatureModels []string
}

// CredentialKey names the variable that holds the credential for s.Provider.
func (s Settings) CredentialKey() string {
	if key, ok := credentialKeys[s.Provider]; ok {
		return key
	}
	return "LLM_API_KEY"
}

// Provider resolves Settings on demand.
type Provider interface {
	Settings() Settings
}

// StaticProvider returns fixed settings; missing limits fall back to defaults.
type StaticProvider Settings

// Settings implements Provider.
func (s StaticProvider) Settings() Settings {
	return withDefaults(Settings(s))
}

// RuntimeProvider re-reads the environment and the optional .env file on every
// Settings call, so credential and model edits apply without a restart.
// Process environment values take precedence over the file.
type RuntimeProvider struct {
	mu      sync.Mutex
	envFile string
}

// NewRuntimeProvider builds a provider backed by the environment and envFile.
func NewRuntimeProvider(envFile string) *RuntimeProvider {
	return &RuntimeProvider{envFile: strings.TrimSpace(envFile)}
}

// Settings implements Provider. A fresh viper instance is used per call so
// values from a deleted or emptied file do not linger.
func (p *RuntimeProvider) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.load()
	provider := normalizeProvider(v.GetString("llm_provider"))
	s := Settings{
		Provider: provider,
		APIKey: firstNonEmpty(
			v.GetString(strings.ToLower(credentialKeys[provider])),
			v.GetString("llm_api_key"),
		),
		Model: firstNonEmpty(
			v.GetString("llm_model"),
			v.GetString(strings.ToLower(modelKeys[provider])),
		),
		BaseURL:             strings.TrimSpace(v.GetString("llm_base_url")),
		Timeout:             time.Duration(v.GetInt("llm_timeout_seconds")) * time.Second,
		MaxPDFBytes:         v.GetInt64("max_pdf_bytes"),
		MaxContractChars:    v.GetInt("max_contract_chars"),
		NoTemperatureModels: splitAndTrim(v.GetString("llm_no_temp_models")),
	}
	return withDefaults(s)
}

func (p *RuntimeProvider) load() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("llm_provider", ProviderGemini)
	v.SetDefault("llm_timeout_seconds", int(DefaultLLMTimeout/time.Second))
	v.SetDefault("max_pdf_bytes", DefaultMaxPDFBytes)
	v.SetDefault("max_contract_chars", DefaultMaxContractChars)
	if p.envFile == "" {
		return v
	}
	v.SetConfigFile(p.envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		telemetry.Warn("config.env_file.read_failed", map[string]any{
			"path": p.envFile,
			"err":  err.Error(),
		})
	}
	return v
}

func withDefaults(s Settings) Settings {
	s.Provider = normalizeProvider(s.Provider)
	s.APIKey = strings.TrimSpace(s.APIKey)
	if strings.TrimSpace(s.Model) == "" {
		s.Model = defaultModels[s.Provider]
	}
	s.Model = strings.TrimSpace(s.Model)
	if s.Timeout <= 0 {
		s.Timeout = DefaultLLMTimeout
	}
	if s.MaxPDFBytes <= 0 {
		s.MaxPDFBytes = DefaultMaxPDFBytes
	}
	if s.MaxContractChars <= 0 {
		s.MaxContractChars = DefaultMaxContractChars
	}
	return s
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ProviderGemini, "google":
		return ProviderGemini
	case ProviderOpenAI:
		return ProviderOpenAI
	case ProviderAnthropic, "claude":
		return ProviderAnthropic
	default:
		telemetry.Warn("config.llm_provider.unknown", map[string]any{
			"provider": raw,
			"fallback": ProviderGemini,
		})
		return ProviderGemini
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
