package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"contractbot-backend/internal/llm"
)

const providerName = "gemini"

// Config for the Gemini client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Client on top of the Gemini API SDK.
type Client struct {
	sdk *genai.Client
}

// NewClient constructs a Gemini client. The SDK client is cheap to build,
// callers create one per analysis so credential edits take effect.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is required", llm.ErrMissingCredentials)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	sdk, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, llm.Upstream(providerName, fmt.Errorf("create client: %w", err))
	}
	return &Client{sdk: sdk}, nil
}

// Generate calls GenerateContent with the system prompt as system instruction.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	temp := req.Temperature
	gc := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSONOutput {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := c.sdk.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), gc)
	if err != nil {
		return llm.Response{}, llm.Upstream(providerName, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return llm.Response{}, llm.Upstream(providerName, errors.New("no candidates returned"))
	}

	out := llm.Response{Text: resp.Text(), Model: req.Model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

var _ llm.Client = (*Client)(nil)
