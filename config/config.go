package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ghostline/types"
)

// EnvConfigPath overrides the default config location when set.
const EnvConfigPath = "GHOSTLINE_CONFIG"

// Config is the daemon configuration, loaded from
// ~/.ghostline/config.yaml unless overridden.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Coexist keeps completions on while a competing tool is active.
	Coexist bool   `yaml:"coexist"`
	Model   string `yaml:"model"`

	Listen    string `yaml:"listen"`
	LogFile   string `yaml:"log_file"`
	LogLevel  string `yaml:"log_level"`
	StorePath string `yaml:"store_path"`

	WorkspaceRoot string `yaml:"workspace_root"`

	Context   ContextConfig   `yaml:"context"`
	Providers ProvidersConfig `yaml:"providers"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ContextConfig bounds the context pipeline.
type ContextConfig struct {
	MaxSnippets      int `yaml:"max_snippets"`
	MaxSnippetTokens int `yaml:"max_snippet_tokens"`
	// DisabledSources lists source names to skip, e.g. "clipboard".
	DisabledSources []string `yaml:"disabled_sources"`
}

// ProvidersConfig holds the per-backend settings.
type ProvidersConfig struct {
	OpenRouter ProviderConfig `yaml:"openrouter"`
	Mistral    ProviderConfig `yaml:"mistral"`
	Ollama     ProviderConfig `yaml:"ollama"`
}

// ProviderConfig configures one backend. APIKeyEnv names an environment
// variable consulted when APIKey is empty, so keys can stay out of the file.
type ProviderConfig struct {
	BaseURL         string  `yaml:"base_url"`
	APIKey          string  `yaml:"api_key"`
	APIKeyEnv       string  `yaml:"api_key_env"`
	Model           string  `yaml:"model"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
	TimeoutMs       int     `yaml:"timeout_ms"`
}

// TelemetryConfig configures the event tracker. An empty endpoint disables
// emission.
type TelemetryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Load reads the config at overridePath, or $GHOSTLINE_CONFIG, or the
// default location. A missing file is created with defaults.
func Load(overridePath string) (Config, error) {
	path := resolvePath(overridePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Config{}, fmt.Errorf("create config dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := writeDefault(path, cfg); err != nil {
				return Config{}, err
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return hydrateDefaults(cfg), nil
}

// Default returns the out-of-the-box configuration.
func Default() Config {
	return Config{
		Enabled:   true,
		Coexist:   false,
		Model:     "qwen2.5-coder",
		Listen:    "127.0.0.1:6033",
		LogLevel:  "info",
		StorePath: filepath.Join(homeDir(), ".ghostline", "ghostline.db"),
		Context: ContextConfig{
			MaxSnippets:      5,
			MaxSnippetTokens: 250,
		},
		Providers: ProvidersConfig{
			OpenRouter: ProviderConfig{
				APIKeyEnv:       "OPENROUTER_API_KEY",
				Model:           "qwen/qwen-2.5-coder-32b-instruct",
				MaxOutputTokens: 256,
				TimeoutMs:       3000,
			},
			Mistral: ProviderConfig{
				APIKeyEnv:       "MISTRAL_API_KEY",
				Model:           "codestral-latest",
				MaxOutputTokens: 256,
				TimeoutMs:       3000,
			},
			Ollama: ProviderConfig{
				BaseURL:         "http://localhost:11434",
				Model:           "qwen2.5-coder",
				MaxOutputTokens: 256,
				TimeoutMs:       10000,
			},
		},
	}
}

func hydrateDefaults(cfg Config) Config {
	def := Default()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Listen == "" {
		cfg.Listen = def.Listen
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.StorePath == "" {
		cfg.StorePath = def.StorePath
	}
	if cfg.Context.MaxSnippets == 0 {
		cfg.Context.MaxSnippets = def.Context.MaxSnippets
	}
	if cfg.Context.MaxSnippetTokens == 0 {
		cfg.Context.MaxSnippetTokens = def.Context.MaxSnippetTokens
	}
	cfg.Providers.OpenRouter = hydrateProvider(cfg.Providers.OpenRouter, def.Providers.OpenRouter)
	cfg.Providers.Mistral = hydrateProvider(cfg.Providers.Mistral, def.Providers.Mistral)
	cfg.Providers.Ollama = hydrateProvider(cfg.Providers.Ollama, def.Providers.Ollama)
	return cfg
}

func hydrateProvider(p, def ProviderConfig) ProviderConfig {
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = def.APIKeyEnv
	}
	if p.Model == "" {
		p.Model = def.Model
	}
	if p.BaseURL == "" {
		p.BaseURL = def.BaseURL
	}
	if p.MaxOutputTokens == 0 {
		p.MaxOutputTokens = def.MaxOutputTokens
	}
	if p.TimeoutMs == 0 {
		p.TimeoutMs = def.TimeoutMs
	}
	return p
}

// Settings resolves one backend's config into adapter settings, consulting
// the environment for the API key.
func (p ProviderConfig) Settings() types.ProviderSettings {
	key := p.APIKey
	if key == "" && p.APIKeyEnv != "" {
		key = os.Getenv(p.APIKeyEnv)
	}
	return types.ProviderSettings{
		BaseURL:         p.BaseURL,
		APIKey:          key,
		Model:           p.Model,
		MaxOutputTokens: p.MaxOutputTokens,
		Temperature:     p.Temperature,
		Timeout:         time.Duration(p.TimeoutMs) * time.Millisecond,
	}
}

// ResolvedAPIKey resolves the telemetry API key from file or environment.
func (t TelemetryConfig) ResolvedAPIKey() string {
	if t.APIKey != "" {
		return t.APIKey
	}
	if t.APIKeyEnv != "" {
		return os.Getenv(t.APIKeyEnv)
	}
	return ""
}

// Budget converts the context section into the engine's budget. Sources
// named in DisabledSources are switched off, everything else stays on.
func (c ContextConfig) Budget() types.ContextBudget {
	budget := types.ContextBudget{
		MaxSnippets:      c.MaxSnippets,
		MaxSnippetTokens: c.MaxSnippetTokens,
	}
	if len(c.DisabledSources) == 0 {
		return budget
	}

	disabled := make(map[string]bool, len(c.DisabledSources))
	for _, name := range c.DisabledSources {
		disabled[name] = true
	}
	all := []types.SourceKind{
		types.SourceRecentlyEdited,
		types.SourceImport,
		types.SourceWorkspace,
		types.SourceClipboard,
		types.SourceRecentlyVisited,
	}
	budget.EnabledSources = make(map[types.SourceKind]bool, len(all))
	for _, kind := range all {
		budget.EnabledSources[kind] = !disabled[kind.String()]
	}
	return budget
}

func resolvePath(overridePath string) string {
	if overridePath != "" {
		return overridePath
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return custom
	}
	return filepath.Join(homeDir(), ".ghostline", "config.yaml")
}

// defaultConfigTemplate is the commented file written on first run. Values
// must stay in sync with Default(); the store_path placeholder is filled at
// write time.
const defaultConfigTemplate = `# ghostline configuration

# Master switch for completions.
enabled: true

# Keep completing while a competing completion tool is active.
coexist: false

# Active model; must match one of the provider models below.
model: qwen2.5-coder

# Address the daemon listens on.
listen: 127.0.0.1:6033

# Log destination; empty logs to stderr.
log_file: ""
log_level: info

# Persistent store for the device id and usage counters.
store_path: %s

# Root directory searched by the workspace context source.
workspace_root: ""

context:
  max_snippets: 5
  max_snippet_tokens: 250
  # Names: recently_edited, imports, workspace, clipboard, recently_visited
  disabled_sources: []

providers:
  openrouter:
    api_key_env: OPENROUTER_API_KEY
    model: qwen/qwen-2.5-coder-32b-instruct
    max_output_tokens: 256
    timeout_ms: 3000
  mistral:
    api_key_env: MISTRAL_API_KEY
    model: codestral-latest
    max_output_tokens: 256
    timeout_ms: 3000
  ollama:
    base_url: http://localhost:11434
    model: qwen2.5-coder
    max_output_tokens: 256
    timeout_ms: 10000

# Telemetry stays off while the endpoint is empty.
telemetry:
  endpoint: ""
`

func writeDefault(path string, cfg Config) error {
	raw := fmt.Sprintf(defaultConfigTemplate, cfg.StorePath)
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
