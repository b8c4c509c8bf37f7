package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/httpclient"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/schema"
	"go.uber.org/zap"
)

const (
	temperature = 0.7

	schemaInstruction  = "Return a JSON object that matches the following JSON schema. Do not include markdown or additional commentary."
	genericInstruction = "Respond ONLY with valid JSON matching the user's request."
	jsonReminder       = "Remember: respond with JSON only."

	defaultTitle = "Epoch Simulation"
)

// Adapter talks to any endpoint implementing POST /chat/completions.
type Adapter struct {
	config    config.OpenAICompatibleConfig
	client    httpclient.HTTPClient
	clientCtx llm.ClientContext
	logger    *zap.Logger
}

type Option func(*Adapter)

func WithHTTPClient(c httpclient.HTTPClient) Option {
	return func(a *Adapter) { a.client = c }
}

func WithClientContext(c llm.ClientContext) Option {
	return func(a *Adapter) { a.clientCtx = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func NewAdapter(cfg config.OpenAICompatibleConfig, opts ...Option) *Adapter {
	a := &Adapter{
		config:    cfg,
		client:    &http.Client{Timeout: 5 * time.Minute},
		clientCtx: llm.StaticClientContext{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) ID() config.ProviderID { return a.config.ID }
func (a *Adapter) Model() string         { return a.config.ModelName }

func (a *Adapter) GenerateJSON(ctx context.Context, req *llm.GenerateRequest) (json.RawMessage, error) {
	messages, err := buildMessages(req)
	if err != nil {
		return nil, err
	}

	body := ChatRequest{
		Model:          a.config.ModelName,
		Messages:       messages,
		Temperature:    temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	raw, err := a.complete(ctx, body)
	if err != nil && rejectsResponseFormat(err) {
		a.logger.Warn("Endpoint rejected response_format, retrying without it",
			zap.String("provider", string(a.config.ID)),
			zap.String("model", a.config.ModelName),
		)
		body.ResponseFormat = nil
		return a.complete(ctx, body)
	}

	return raw, err
}

func buildMessages(req *llm.GenerateRequest) ([]Message, error) {
	instruction := genericInstruction
	if js := schema.Translate(req.ResponseSchema); js != nil {
		rendered, err := schema.Pretty(js)
		if err != nil {
			return nil, fmt.Errorf("failed to render response schema: %w", err)
		}
		instruction = schemaInstruction + "\n\n" + rendered
	}

	return []Message{
		{
			Role:    "system",
			Content: strings.TrimSpace(req.SystemInstruction + "\n\n" + instruction),
		},
		{
			Role:    "user",
			Content: req.Prompt + "\n\n" + jsonReminder,
		},
	}, nil
}

// rejectsResponseFormat matches the error servers return when they do not
// support the response_format parameter.
func rejectsResponseFormat(err error) bool {
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) || genErr.Kind != llm.KindUpstreamStatus {
		return false
	}
	return strings.Contains(genErr.Error(), "response_format")
}

func (a *Adapter) complete(ctx context.Context, body ChatRequest) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.config.BaseURL, "/"))

	a.logger.Debug("Sending chat completion",
		zap.String("provider", string(a.config.ID)),
		zap.String("url", url),
		zap.Bool("response_format", body.ResponseFormat != nil),
	)

	var resp ChatResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, url, a.headers(ctx), body, &resp); err != nil {
		return nil, a.wrapError(ctx, err)
	}

	content := resp.content()
	if content == "" {
		return nil, &llm.GenerationError{
			Kind:     llm.KindNoContent,
			Provider: a.config.ID,
			Message:  "no content returned from OpenAI-compatible provider",
		}
	}

	return llm.DecodeContent(a.config.ID, content)
}

func (a *Adapter) headers(ctx context.Context) map[string]string {
	headers := map[string]string{}
	if a.config.APIKey == "" {
		return headers
	}

	headers["Authorization"] = "Bearer " + a.config.APIKey

	if a.config.ID == config.ProviderOpenRouter {
		attr := a.clientCtx.Attribution(ctx)
		if attr.Origin != "" {
			headers["HTTP-Referer"] = attr.Origin
		}
		if attr.Title == "" {
			attr.Title = defaultTitle
		}
		headers["X-Title"] = attr.Title
	}

	return headers
}

func (a *Adapter) wrapError(ctx context.Context, err error) error {
	if interrupted := llm.Interrupted(ctx, a.config.ID, err); interrupted != nil {
		return interrupted
	}

	var upstream *httpclient.UpstreamError
	if errors.As(err, &upstream) {
		return &llm.GenerationError{
			Kind:       llm.KindUpstreamStatus,
			Provider:   a.config.ID,
			StatusCode: upstream.StatusCode,
			Body:       string(upstream.Body),
			Message:    fmt.Sprintf("OpenAI-compatible provider request failed (%d): %s", upstream.StatusCode, upstream.Body),
			Err:        err,
		}
	}

	var transport *httpclient.TransportError
	if errors.As(err, &transport) {
		return &llm.GenerationError{
			Kind:     llm.KindTransport,
			Provider: a.config.ID,
			Message:  transport.Error(),
			Err:      err,
		}
	}

	// the body arrived but was not a chat completion
	return &llm.GenerationError{
		Kind:     llm.KindInvalidJSON,
		Provider: a.config.ID,
		Message:  "OpenAI-compatible provider returned an unreadable response: " + err.Error(),
		Err:      err,
	}
}
