// Package factory turns the resolved provider configuration into the single
// Provider instance used for the lifetime of the process.
package factory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/httpclient"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/llm/gemini"
	"github.com/nulzo/epoch/internal/llm/openaicompat"
	"go.uber.org/zap"
)

// Resolver yields the process-wide provider configuration.
type Resolver interface {
	Resolve() (config.ProviderConfig, error)
}

// GeminiConstructor builds the native adapter. It is swapped out in tests to
// avoid creating a real SDK client.
type GeminiConstructor func(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (llm.Provider, error)

// CompatibleConstructor builds an adapter for an OpenAI-compatible endpoint.
type CompatibleConstructor func(cfg config.OpenAICompatibleConfig, opts ...openaicompat.Option) llm.Provider

type Factory struct {
	resolver  Resolver
	logger    *zap.Logger
	client    httpclient.HTTPClient
	clientCtx llm.ClientContext

	newGemini     GeminiConstructor
	newCompatible CompatibleConstructor

	mu       sync.Mutex
	provider llm.Provider
}

type Option func(*Factory)

func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

func WithHTTPClient(c httpclient.HTTPClient) Option {
	return func(f *Factory) { f.client = c }
}

func WithClientContext(c llm.ClientContext) Option {
	return func(f *Factory) { f.clientCtx = c }
}

func WithGeminiConstructor(fn GeminiConstructor) Option {
	return func(f *Factory) { f.newGemini = fn }
}

func WithCompatibleConstructor(fn CompatibleConstructor) Option {
	return func(f *Factory) { f.newCompatible = fn }
}

func New(resolver Resolver, opts ...Option) *Factory {
	f := &Factory{
		resolver: resolver,
		logger:   zap.NewNop(),
		newGemini: func(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (llm.Provider, error) {
			return gemini.NewAdapter(ctx, cfg, logger)
		},
		newCompatible: func(cfg config.OpenAICompatibleConfig, opts ...openaicompat.Option) llm.Provider {
			return openaicompat.NewAdapter(cfg, opts...)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Provider returns the cached provider, constructing it on first use.
// Concurrent first calls observe the same instance. Errors are not cached,
// so a later call may succeed once the environment is fixed.
func (f *Factory) Provider(ctx context.Context) (llm.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.provider != nil {
		return f.provider, nil
	}

	cfg, err := f.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	p, err := f.build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	f.logger.Info("LLM provider initialized",
		zap.String("provider", string(p.ID())),
		zap.String("model", p.Model()),
	)

	f.provider = p
	return p, nil
}

func (f *Factory) build(ctx context.Context, cfg config.ProviderConfig) (llm.Provider, error) {
	switch c := cfg.(type) {
	case config.GeminiConfig:
		return f.newGemini(ctx, c, f.logger.Named("gemini"))

	case config.OpenAICompatibleConfig:
		opts := []openaicompat.Option{openaicompat.WithLogger(f.logger.Named(string(c.ID)))}
		if f.client != nil {
			opts = append(opts, openaicompat.WithHTTPClient(f.client))
		}
		if f.clientCtx != nil {
			opts = append(opts, openaicompat.WithClientContext(f.clientCtx))
		}
		return f.newCompatible(c, opts...), nil

	default:
		return nil, fmt.Errorf("factory: unsupported provider config %T", cfg)
	}
}
