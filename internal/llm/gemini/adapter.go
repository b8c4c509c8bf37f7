package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/schema"
	"go.uber.org/zap"
	genai "google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the adapter needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Adapter calls the Gemini API through the official SDK. The response schema
// is handed to the API in its native form; no JSON Schema translation runs.
type Adapter struct {
	config config.GeminiConfig
	models contentGenerator
	logger *zap.Logger
}

// NewAdapter builds the genai client. A missing API key is a configuration
// error.
func NewAdapter(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &config.Error{
			Setting: config.EnvName("gemini.api_key"),
			Reason:  "is required when using the gemini provider",
		}
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newAdapter(cfg, cli.Models, logger), nil
}

func newAdapter(cfg config.GeminiConfig, models contentGenerator, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{config: cfg, models: models, logger: logger}
}

func (a *Adapter) ID() config.ProviderID { return a.config.ID }
func (a *Adapter) Model() string         { return a.config.ModelName }

func (a *Adapter) GenerateJSON(ctx context.Context, req *llm.GenerateRequest) (json.RawMessage, error) {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType: req.MIMEType(),
		ResponseSchema:   toGenai(req.ResponseSchema),
	}
	if req.SystemInstruction != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	a.logger.Debug("Sending generate content",
		zap.String("model", a.config.ModelName),
		zap.Bool("schema", gc.ResponseSchema != nil),
	)

	resp, err := a.models.GenerateContent(ctx, a.config.ModelName, genai.Text(req.Prompt), gc)
	if err != nil {
		return nil, a.wrapError(ctx, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &llm.GenerationError{
			Kind:     llm.KindEmptyResponse,
			Provider: a.config.ID,
			Message:  "gemini provider returned empty response",
		}
	}

	return llm.DecodeContent(a.config.ID, text)
}

func (a *Adapter) wrapError(ctx context.Context, err error) error {
	if interrupted := llm.Interrupted(ctx, a.config.ID, err); interrupted != nil {
		return interrupted
	}

	if apiErr, ok := asAPIError(err); ok {
		return &llm.GenerationError{
			Kind:       llm.KindUpstreamStatus,
			Provider:   a.config.ID,
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
			Message:    fmt.Sprintf("gemini provider request failed (%d): %s", apiErr.Code, apiErr.Message),
			Err:        err,
		}
	}

	return &llm.GenerationError{
		Kind:     llm.KindTransport,
		Provider: a.config.ID,
		Message:  "gemini provider request failed: " + err.Error(),
		Err:      err,
	}
}

// asAPIError matches the SDK error whether it was returned by value or pointer.
func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// enumStrings renders enum members as the API expects them. Gemini only
// accepts string enums.
func enumStrings(values []any) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			out = append(out, str)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// toGenai mirrors the vendor schema into the SDK type. Kind labels are passed
// through untouched and property order is carried by PropertyOrdering.
func toGenai(s *schema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	g := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Enum:        enumStrings(s.Enum),
		Required:    s.Required,
	}
	if s.Nullable != nil {
		v := *s.Nullable
		g.Nullable = &v
	}

	switch {
	case s.Items != nil:
		g.Items = toGenai(s.Items)
	case len(s.AnyItems) > 0:
		alternatives := make([]*genai.Schema, 0, len(s.AnyItems))
		for _, item := range s.AnyItems {
			if item != nil {
				alternatives = append(alternatives, toGenai(item))
			}
		}
		g.Items = &genai.Schema{AnyOf: alternatives}
	}

	if len(s.Properties) > 0 {
		g.Properties = make(map[string]*genai.Schema, len(s.Properties))
		g.PropertyOrdering = make([]string, 0, len(s.Properties))
		for _, p := range s.Properties {
			if p.Schema == nil {
				continue
			}
			g.Properties[p.Name] = toGenai(p.Schema)
			g.PropertyOrdering = append(g.PropertyOrdering, p.Name)
		}
	}

	return g
}
