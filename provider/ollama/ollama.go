package ollama

import (
	"context"
	"errors"
	"time"

	"ghostline/client/ollama"
	"ghostline/fim"
	"ghostline/logger"
	"ghostline/provider"
	"ghostline/types"
	"ghostline/utils"
)

// DefaultTimeout is longer than the hosted backends; local inference pays
// model load and cold-start costs.
const DefaultTimeout = 10 * time.Second

const defaultBaseURL = "http://localhost:11434"

// Compile-time check that Provider implements provider.Provider
var _ provider.Provider = (*Provider)(nil)

// Provider completes against a local Ollama server.
type Provider struct {
	cfg     types.ProviderSettings
	client  *ollama.Client
	tmpl    fim.Template
	timeout time.Duration
}

// New creates an Ollama provider for the configured model.
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
		client:  ollama.NewClient(baseURL),
		tmpl:    fim.ForModel(cfg.Model),
		timeout: timeout,
	}
}

// GetCompletion implements provider.Provider.
func (p *Provider) GetCompletion(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResult, error) {
	defer logger.Trace("ollama.GetCompletion")()

	if p.cfg.Model == "" {
		logger.Debug("ollama: no model configured, skipping")
		return nil, nil
	}
	if ctx.Err() != nil {
		logger.Debug("ollama: cancelled before dispatch")
		return nil, nil
	}

	prefix := utils.TruncatePrefix(req.Prefix, provider.PrefixTokenBudget)
	suffix := utils.TruncateSuffix(req.Suffix, provider.SuffixTokenBudget)
	prompt := p.tmpl.Render(prefix, suffix)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  p.cfg.Model,
		Prompt: prompt,
		Options: ollama.GenerateOptions{
			Temperature: provider.EffectiveTemperature(p.cfg.Temperature),
			NumPredict:  p.cfg.MaxOutputTokens,
			Stop:        p.tmpl.Stop,
		},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug("ollama: request cancelled: %v", err)
		} else {
			logger.Warn("ollama: completion failed: %v", err)
		}
		return nil, nil
	}

	return &types.CompletionResult{
		Text:     provider.PostProcess(resp.Response, &p.tmpl),
		ModelID:  p.cfg.Model,
		Provider: "ollama",
	}, nil
}

// IsAvailable implements provider.Provider. Local readiness is the
// conjunction of two probes: the server answering at all, and the specific
// model being present. Each probe carries its own short timeout.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if p.cfg.Model == "" {
		return false
	}
	return p.client.Reachable(ctx) && p.client.HasModel(ctx, p.cfg.Model)
}

// DisplayName implements provider.Provider.
func (p *Provider) DisplayName() string { return "Ollama" }

// ModelID implements provider.Provider.
func (p *Provider) ModelID() string { return p.cfg.Model }
