package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contractbot-backend/internal/extract"
	"contractbot-backend/internal/llm"
	"contractbot-backend/internal/shared/config"
	"contractbot-backend/internal/shared/metrics"
	"contractbot-backend/internal/shared/telemetry"
)

// ClientFactory builds the model client for the settings of one analysis.
type ClientFactory func(ctx context.Context, s config.Settings) (llm.Client, error)

// Envelope is the response body of every analysis request.
type Envelope struct {
	Success  bool            `json:"success"`
	Analysis *AnalysisResult `json:"analysis"`
	Error    *string         `json:"error"`
}

// NewEnvelope wraps a pipeline outcome.
func NewEnvelope(result *AnalysisResult, err error) Envelope {
	if err != nil {
		msg := err.Error()
		var ae *Error
		if errors.As(err, &ae) {
			msg = ae.Message
		}
		return Envelope{Success: false, Error: &msg}
	}
	return Envelope{Success: true, Analysis: result}
}

// Pipeline normalizes a contract, asks the model for an analysis and
// validates the reply.
type Pipeline struct {
	Settings   config.Provider
	Normalizer *extract.Normalizer
	NewClient  ClientFactory
}

// NewPipeline constructs a Pipeline.
func NewPipeline(settings config.Provider, normalizer *extract.Normalizer, newClient ClientFactory) *Pipeline {
	if normalizer == nil {
		normalizer = extract.NewNormalizer()
	}
	return &Pipeline{Settings: settings, Normalizer: normalizer, NewClient: newClient}
}

// Outcome carries details of a finished analysis for logging by callers.
type Outcome struct {
	Contract extract.Contract
	Model    string
}

// AnalyzeText analyzes pasted contract text.
func (p *Pipeline) AnalyzeText(ctx context.Context, text string) (*AnalysisResult, Outcome, error) {
	return p.run(ctx, extract.SourceText, func(s config.Settings) (extract.Contract, error) {
		return p.Normalizer.FromText(text, s.MaxContractChars)
	})
}

// AnalyzePDF analyzes an uploaded PDF. sizeHint is the declared upload size,
// zero when unknown; anything over the configured maximum is rejected
// before extraction.
func (p *Pipeline) AnalyzePDF(ctx context.Context, data []byte, sizeHint int64) (*AnalysisResult, Outcome, error) {
	return p.run(ctx, extract.SourcePDF, func(s config.Settings) (extract.Contract, error) {
		if sizeHint > s.MaxPDFBytes || int64(len(data)) > s.MaxPDFBytes {
			return extract.Contract{}, PDFTooLarge(s.MaxPDFBytes)
		}
		return p.Normalizer.FromPDF(ctx, data, s.MaxContractChars)
	})
}

// MaxPDFBytes returns the current upload limit.
func (p *Pipeline) MaxPDFBytes() int64 {
	return p.Settings.Settings().MaxPDFBytes
}

func (p *Pipeline) run(ctx context.Context, source extract.Source, normalize func(config.Settings) (extract.Contract, error)) (result *AnalysisResult, outcome Outcome, err error) {
	start := time.Now()
	metrics.IncAnalysisStarted(string(source))
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newError(KindInternal, msgInternal, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			ae := classify(err, source)
			err = ae
			metrics.IncAnalysisFailed(string(ae.Kind))
			fields := map[string]any{
				"source": string(source),
				"kind":   string(ae.Kind),
				"err":    ae.Error(),
			}
			if ae.Excerpt != "" {
				fields["excerpt"] = ae.Excerpt
			}
			telemetry.Warn("analysis.failed", fields)
			return
		}
		elapsed := time.Since(start)
		metrics.IncAnalysisCompleted()
		metrics.ObserveAnalysisDurationMs(float64(elapsed.Milliseconds()))
		telemetry.Info("analysis.completed", map[string]any{
			"source":      string(source),
			"model":       outcome.Model,
			"chars":       outcome.Contract.OriginalChars,
			"truncated":   outcome.Contract.Truncated,
			"risk_flags":  len(result.RiskFlags),
			"duration_ms": elapsed.Milliseconds(),
		})
	}()

	settings := p.Settings.Settings()

	contract, err := normalize(settings)
	if err != nil {
		return nil, outcome, err
	}
	outcome.Contract = contract
	if contract.Truncated {
		metrics.IncContractTruncated()
		telemetry.Warn("analysis.contract_truncated", map[string]any{
			"source":    string(source),
			"chars":     contract.OriginalChars,
			"max_chars": settings.MaxContractChars,
		})
	}

	raw, model, err := p.invoke(ctx, settings, contract.Text)
	if err != nil {
		return nil, outcome, err
	}
	outcome.Model = model

	result, err = ParseResult(raw)
	if err != nil {
		return nil, outcome, err
	}
	return result, outcome, nil
}

// invoke sends the rendered prompt to the configured model and returns its text.
func (p *Pipeline) invoke(ctx context.Context, s config.Settings, contractText string) (string, string, error) {
	if s.APIKey == "" {
		return "", "", fmt.Errorf("%w: %s is not set. Add it to the environment or the .env file", llm.ErrMissingCredentials, s.CredentialKey())
	}
	client, err := p.NewClient(ctx, s)
	if err != nil {
		return "", "", err
	}
	resp, err := client.Generate(ctx, llm.Request{
		Model:           s.Model,
		System:          SystemPrompt(),
		Prompt:          BuildPrompt(contractText),
		MaxOutputTokens: MaxOutputTokens,
		Temperature:     Temperature,
		JSONOutput:      true,
	})
	if err != nil {
		return "", "", err
	}
	llm.LogUsage(s.Provider, resp)
	model := resp.Model
	if model == "" {
		model = s.Model
	}
	return resp.Text, model, nil
}
