package llm

import (
	"context"
	"errors"
	"fmt"

	"contractbot-backend/internal/shared/telemetry"
)

// Client abstracts generative model providers.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a single-turn generation call.
type Request struct {
	Model           string
	System          string
	Prompt          string
	MaxOutputTokens int
	Temperature     float32
	// JSONOutput asks providers that support it for a JSON-only response.
	JSONOutput bool
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the raw model output.
type Response struct {
	Text  string
	Model string
	Usage *Usage
}

var (
	// ErrMissingCredentials means no API credential is configured.
	ErrMissingCredentials = errors.New("llm credentials not configured")
	// ErrUpstream wraps every failure of the remote call itself.
	ErrUpstream = errors.New("llm upstream error")
)

// Upstream wraps err as an ErrUpstream failure of provider.
func Upstream(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, provider, err)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

// Generate implements Client.
func (f ClientFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// LogUsage writes a usage line for a completed generation.
func LogUsage(provider string, resp Response) {
	fields := map[string]any{
		"provider": provider,
		"model":    resp.Model,
	}
	if resp.Usage != nil {
		fields["prompt_tokens"] = resp.Usage.PromptTokens
		fields["completion_tokens"] = resp.Usage.CompletionTokens
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}
