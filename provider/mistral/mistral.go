package mistral

import (
	"context"
	"errors"
	"time"

	"ghostline/client/openai"
	"ghostline/fim"
	"ghostline/logger"
	"ghostline/provider"
	"ghostline/types"
	"ghostline/utils"
)

// DefaultTimeout bounds one Codestral completion call.
const DefaultTimeout = 3 * time.Second

const defaultBaseURL = "https://codestral.mistral.ai"

// Compile-time check that Provider implements provider.Provider
var _ provider.Provider = (*Provider)(nil)

// Provider completes against Codestral. Codestral's FIM layout is
// suffix-first ([SUFFIX]suffix[PREFIX]prefix); the template table declares
// that ordering, so rendering here is identical to every other adapter.
type Provider struct {
	cfg     types.ProviderSettings
	client  *openai.Client
	tmpl    fim.Template
	timeout time.Duration
}

// New creates a Codestral provider for the configured model.
func New(cfg types.ProviderSettings) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{
		cfg:     cfg,
		client:  openai.NewClient(baseURL, "/v1/completions", cfg.APIKey),
		tmpl:    fim.ForModel(cfg.Model),
		timeout: timeout,
	}
}

// GetCompletion implements provider.Provider.
func (p *Provider) GetCompletion(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResult, error) {
	defer logger.Trace("mistral.GetCompletion")()

	if p.cfg.APIKey == "" {
		logger.Debug("mistral: no api key, skipping")
		return nil, nil
	}
	if ctx.Err() != nil {
		logger.Debug("mistral: cancelled before dispatch")
		return nil, nil
	}

	prefix := utils.TruncatePrefix(req.Prefix, provider.PrefixTokenBudget)
	suffix := utils.TruncateSuffix(req.Suffix, provider.SuffixTokenBudget)
	prompt := p.tmpl.Render(prefix, suffix)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.DoCompletion(ctx, &openai.CompletionRequest{
		Model:       p.cfg.Model,
		Prompt:      prompt,
		Temperature: provider.EffectiveTemperature(p.cfg.Temperature),
		MaxTokens:   p.cfg.MaxOutputTokens,
		Stop:        p.tmpl.Stop,
		N:           1,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug("mistral: request cancelled: %v", err)
		} else {
			logger.Warn("mistral: completion failed: %v", err)
		}
		return nil, nil
	}
	if len(resp.Choices) == 0 {
		logger.Debug("mistral: response had no choices")
		return nil, nil
	}

	return &types.CompletionResult{
		Text:     provider.PostProcess(resp.Choices[0].Text, &p.tmpl),
		ModelID:  p.cfg.Model,
		Provider: "mistral",
	}, nil
}

// IsAvailable implements provider.Provider.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.cfg.APIKey != "" && p.cfg.Model != ""
}

// DisplayName implements provider.Provider.
func (p *Provider) DisplayName() string { return "Codestral" }

// ModelID implements provider.Provider.
func (p *Provider) ModelID() string { return p.cfg.Model }
