// Package registry builds the llm.Client for the provider named in runtime settings.
package registry

import (
	"context"
	"fmt"

	"contractbot-backend/internal/llm"
	"contractbot-backend/internal/llm/anthropic"
	"contractbot-backend/internal/llm/gemini"
	"contractbot-backend/internal/llm/openai"
	"contractbot-backend/internal/shared/config"
)

// New returns a client for s.Provider. A blank credential is reported as
// llm.ErrMissingCredentials naming the variable to set.
func New(ctx context.Context, s config.Settings) (llm.Client, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s", llm.ErrMissingCredentials, s.CredentialKey())
	}
	switch s.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:              s.APIKey,
			BaseURL:             s.BaseURL,
			Timeout:             s.Timeout,
			NoTemperatureModels: s.NoTemperatureModels,
		})
	case config.ProviderAnthropic:
		return anthropic.NewClient(anthropic.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Timeout: s.Timeout})
	case config.ProviderGemini, "":
		return gemini.NewClient(ctx, gemini.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Timeout: s.Timeout})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", s.Provider)
	}
}
