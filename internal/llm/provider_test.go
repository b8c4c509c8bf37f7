package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/nulzo/epoch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	raw json.RawMessage
	err error
}

func (s stubProvider) ID() config.ProviderID { return config.ProviderLMStudio }
func (s stubProvider) Model() string          { return "stub" }
func (s stubProvider) GenerateJSON(context.Context, *GenerateRequest) (json.RawMessage, error) {
	return s.raw, s.err
}

type pingResult struct {
	OK bool `json:"ok"`
}

func TestGenerateJSON_Decodes(t *testing.T) {
	out, err := GenerateJSON[pingResult](context.Background(), stubProvider{raw: json.RawMessage(`{"ok":true}`)}, &GenerateRequest{Prompt: "ping"})

	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestGenerateJSON_TypeMismatch(t *testing.T) {
	_, err := GenerateJSON[pingResult](context.Background(), stubProvider{raw: json.RawMessage(`[1,2]`)}, &GenerateRequest{})

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, KindInvalidJSON, genErr.Kind)
	assert.Equal(t, "[1,2]", genErr.Content)
	assert.Equal(t, config.ProviderLMStudio, genErr.Provider)
}

func TestGenerateJSON_PassesProviderError(t *testing.T) {
	want := &GenerationError{Kind: KindTransport, Message: "boom"}

	_, err := GenerateJSON[pingResult](context.Background(), stubProvider{err: want}, &GenerateRequest{})

	assert.Same(t, want, err)
}

func TestDecodeContent(t *testing.T) {
	raw, err := DecodeContent(config.ProviderGemini, `{"a":[1]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[1]}`, string(raw))

	_, err = DecodeContent(config.ProviderGemini, "Sure! Here is JSON")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidJSON))
	assert.Contains(t, err.Error(), "Sure! Here is JSON")

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, DefaultMIMEType, (&GenerateRequest{}).MIMEType())
	assert.Equal(t, "text/plain", (&GenerateRequest{ResponseMIMEType: "text/plain"}).MIMEType())
}

func TestInterrupted(t *testing.T) {
	t.Run("live context and unrelated error", func(t *testing.T) {
		assert.Nil(t, Interrupted(context.Background(), config.ProviderGemini, errors.New("dial tcp: refused")))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Interrupted(ctx, config.ProviderGemini, errors.New("read aborted"))
		require.NotNil(t, err)
		assert.Equal(t, KindCancelled, err.Kind)
		assert.Equal(t, "generation cancelled", err.Error())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("wrapped deadline", func(t *testing.T) {
		err := Interrupted(context.Background(), config.ProviderOpenRouter, fmt.Errorf("post: %w", context.DeadlineExceeded))
		require.NotNil(t, err)
		assert.Equal(t, "generation timed out", err.Error())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestStaticClientContext(t *testing.T) {
	static := StaticClientContext{Origin: "https://fallback.example", Title: "Epoch"}

	assert.Equal(t, Attribution{Origin: "https://fallback.example", Title: "Epoch"}, static.Attribution(context.Background()))

	ctx := WithAttribution(context.Background(), Attribution{Origin: "https://app.example"})
	assert.Equal(t, Attribution{Origin: "https://app.example", Title: "Epoch"}, static.Attribution(ctx))

	got, ok := AttributionFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "https://app.example", got.Origin)
}
