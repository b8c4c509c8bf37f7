package config

import (
	"fmt"
	"sync"

	"github.com/nulzo/epoch/internal/platform/validation"
)

// ProviderID names a backend identity.
type ProviderID string

const (
	ProviderGemini     ProviderID = "gemini"
	ProviderLMStudio   ProviderID = "lm_studio"
	ProviderLMProxy    ProviderID = "lm_proxy"
	ProviderOpenRouter ProviderID = "openrouter"
)

// ProviderConfig is implemented by GeminiConfig and OpenAICompatibleConfig
// only. Callers switch on the concrete type.
type ProviderConfig interface {
	Provider() ProviderID
	Model() string
	providerConfig()
}

// GeminiConfig selects Google's native generative API.
type GeminiConfig struct {
	ID        ProviderID
	ModelName string
	APIKey    string
}

func (c GeminiConfig) Provider() ProviderID { return c.ID }
func (c GeminiConfig) Model() string        { return c.ModelName }
func (GeminiConfig) providerConfig()        {}

// OpenAICompatibleConfig selects an endpoint speaking the chat completions
// protocol.
type OpenAICompatibleConfig struct {
	ID        ProviderID
	BaseURL   string
	ModelName string
	APIKey    string
}

func (c OpenAICompatibleConfig) Provider() ProviderID { return c.ID }
func (c OpenAICompatibleConfig) Model() string        { return c.ModelName }
func (OpenAICompatibleConfig) providerConfig()        {}

// ProviderConfig materializes the variant chosen by LLM_PROVIDER.
func (c *Config) ProviderConfig() (ProviderConfig, error) {
	switch id := ProviderID(c.LLM.Provider); id {
	case ProviderGemini:
		return GeminiConfig{
			ID:        id,
			ModelName: c.Gemini.Model,
			APIKey:    c.Gemini.APIKey,
		}, nil

	case ProviderLMStudio:
		return compatible(id, "lm_studio", c.LMStudio.BaseURL, c.LMStudio.Model, "")

	case ProviderLMProxy:
		return compatible(id, "lm_proxy", c.LMProxy.BaseURL, c.LMProxy.Model, "")

	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return nil, &Error{
				Setting: EnvName("openrouter.api_key"),
				Reason:  "is required when using the openrouter provider",
			}
		}
		return compatible(id, "openrouter", c.OpenRouter.BaseURL, c.OpenRouter.Model, c.OpenRouter.APIKey)

	default:
		return nil, &Error{
			Setting: EnvName("llm.provider"),
			Reason:  fmt.Sprintf("unsupported provider %q", c.LLM.Provider),
		}
	}
}

var urlCheck = validation.New("mapstructure")

func compatible(id ProviderID, prefix, baseURL, model, apiKey string) (ProviderConfig, error) {
	if err := urlCheck.Var(baseURL, "required,url"); err != nil {
		return nil, &Error{
			Setting: EnvName(prefix + ".base_url"),
			Reason:  fmt.Sprintf("must be a valid URL, got %q", baseURL),
			Err:     err,
		}
	}
	if model == "" {
		return nil, &Error{
			Setting: EnvName(prefix + ".model"),
			Reason:  "must not be empty",
		}
	}
	return OpenAICompatibleConfig{
		ID:        id,
		BaseURL:   baseURL,
		ModelName: model,
		APIKey:    apiKey,
	}, nil
}

// Resolver resolves the provider configuration once and hands out the same
// value for the rest of the process. A failed resolution is not cached.
type Resolver struct {
	load func() (*Config, error)

	mu       sync.Mutex
	resolved ProviderConfig
}

// NewResolver returns a Resolver that reads the environment through Load.
func NewResolver() *Resolver {
	return &Resolver{load: Load}
}

// NewResolverFrom returns a Resolver backed by an already loaded Config.
func NewResolverFrom(cfg *Config) *Resolver {
	return &Resolver{load: func() (*Config, error) { return cfg, nil }}
}

// Resolve returns the memoized provider configuration, loading it on first use.
func (r *Resolver) Resolve() (ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return r.resolved, nil
	}

	cfg, err := r.load()
	if err != nil {
		return nil, err
	}

	pc, err := cfg.ProviderConfig()
	if err != nil {
		return nil, err
	}

	r.resolved = pc
	return pc, nil
}
