// Package llm defines the contract every model backend implements: turn a
// prompt plus an optional response schema into a parsed JSON document.
package llm

import (
	"context"
	"encoding/json"

	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/schema"
)

// DefaultMIMEType is requested when a GenerateRequest leaves the MIME type empty.
const DefaultMIMEType = "application/json"

// GenerateRequest is built per call and never retained by a provider.
type GenerateRequest struct {
	Prompt            string
	SystemInstruction string
	// ResponseSchema is a hint for the model. Results are not validated
	// against it.
	ResponseSchema   *schema.Schema
	ResponseMIMEType string
}

// MIMEType returns the requested MIME type or DefaultMIMEType.
func (r *GenerateRequest) MIMEType() string {
	if r.ResponseMIMEType == "" {
		return DefaultMIMEType
	}
	return r.ResponseMIMEType
}

// Provider is a backend capable of structured generation. Implementations
// hold no per-call state and are safe for concurrent use.
type Provider interface {
	ID() config.ProviderID
	Model() string
	// GenerateJSON returns the model output as a syntactically valid JSON
	// document, or a *GenerationError.
	GenerateJSON(ctx context.Context, req *GenerateRequest) (json.RawMessage, error)
}

// GenerateJSON runs req against p and decodes the result into T.
func GenerateJSON[T any](ctx context.Context, p Provider, req *GenerateRequest) (T, error) {
	var out T

	raw, err := p.GenerateJSON(ctx, req)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &GenerationError{
			Kind:     KindInvalidJSON,
			Provider: p.ID(),
			Content:  string(raw),
			Message:  "result does not fit the requested type: " + err.Error(),
			Err:      err,
		}
	}

	return out, nil
}

// DecodeContent checks that content is a JSON document and returns it as-is.
// The raw content is carried in the error to make malformed model output
// debuggable.
func DecodeContent(provider config.ProviderID, content string) (json.RawMessage, error) {
	var probe any
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return nil, &GenerationError{
			Kind:     KindInvalidJSON,
			Provider: provider,
			Content:  content,
			Message:  "provider returned non-JSON content: " + content,
			Err:      err,
		}
	}
	return json.RawMessage(content), nil
}
