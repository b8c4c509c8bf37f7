package openaicompat_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/llm/openaicompat"
	"github.com/nulzo/epoch/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Header http.Header
	Body   map[string]any
	Chat   openaicompat.ChatRequest
}

type recorder struct {
	mu       sync.Mutex
	requests []capturedRequest
}

func (r *recorder) add(req capturedRequest) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return len(r.requests)
}

func (r *recorder) all() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.requests...)
}

// mockEndpoint records every request and answers with respond.
func mockEndpoint(t *testing.T, respond func(n int, req capturedRequest, w http.ResponseWriter)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw json.RawMessage
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		req := capturedRequest{Header: r.Header.Clone()}
		assert.NoError(t, json.Unmarshal(raw, &req.Body))
		assert.NoError(t, json.Unmarshal(raw, &req.Chat))

		respond(rec.add(req), req, w)
	}))
	t.Cleanup(server.Close)

	return server, rec
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []any{
			map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func newAdapter(server *httptest.Server, id config.ProviderID, key string, opts ...openaicompat.Option) *openaicompat.Adapter {
	return openaicompat.NewAdapter(config.OpenAICompatibleConfig{
		ID:        id,
		BaseURL:   server.URL + "/v1/",
		ModelName: "local-model",
		APIKey:    key,
	}, append([]openaicompat.Option{openaicompat.WithHTTPClient(server.Client())}, opts...)...)
}

func TestGenerateJSON_EndToEnd(t *testing.T) {
	server, captured := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(completion(`{"ok": true}`)))
	})
	adapter := newAdapter(server, config.ProviderLMStudio, "")

	type pong struct {
		OK bool `json:"ok"`
	}
	out, err := llm.GenerateJSON[pong](context.Background(), adapter, &llm.GenerateRequest{
		Prompt: "ping",
		ResponseSchema: schema.Object([]string{"ok"},
			schema.Prop("ok", &schema.Schema{Type: schema.TypeBoolean}),
		),
	})

	require.NoError(t, err)
	assert.True(t, out.OK)

	require.Len(t, captured.all(), 1)
	req := captured.all()[0]
	assert.Equal(t, "local-model", req.Chat.Model)
	assert.Equal(t, 0.7, req.Chat.Temperature)
	require.NotNil(t, req.Chat.ResponseFormat)
	assert.Equal(t, "json_object", req.Chat.ResponseFormat.Type)
	assert.Empty(t, req.Header.Get("Authorization"))

	require.Len(t, req.Chat.Messages, 2)
	system, user := req.Chat.Messages[0], req.Chat.Messages[1]
	assert.Equal(t, "system", system.Role)
	assert.True(t, strings.HasPrefix(system.Content, "Return a JSON object that matches the following JSON schema."))
	assert.Contains(t, system.Content, `"type": "boolean"`)
	assert.Contains(t, system.Content, `"required": [`)
	assert.Contains(t, system.Content, "\n  \"properties\": {")
	assert.Equal(t, "user", user.Role)
	assert.Equal(t, "ping\n\nRemember: respond with JSON only.", user.Content)
}

func TestGenerateJSON_NoSchemaUsesGenericInstruction(t *testing.T) {
	server, captured := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(completion(`[1, 2]`)))
	})
	adapter := newAdapter(server, config.ProviderLMProxy, "")

	raw, err := adapter.GenerateJSON(context.Background(), &llm.GenerateRequest{
		Prompt:            "list",
		SystemInstruction: "You are the Simulation Core AI.",
		ResponseSchema:    &schema.Schema{Description: "malformed"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2]`, string(raw))
	assert.Equal(t,
		"You are the Simulation Core AI.\n\nRespond ONLY with valid JSON matching the user's request.",
		captured.all()[0].Chat.Messages[0].Content)
}

func TestGenerateJSON_ResponseFormatFallback(t *testing.T) {
	server, captured := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		if _, ok := req.Body["response_format"]; ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unrecognized request argument supplied: response_format"}}`))
			return
		}
		_, _ = w.Write([]byte(completion(`{"a": 1}`)))
	})
	adapter := newAdapter(server, config.ProviderLMStudio, "")

	raw, err := adapter.GenerateJSON(context.Background(), &llm.GenerateRequest{Prompt: "go"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(raw))

	require.Len(t, captured.all(), 2)
	_, first := captured.all()[0].Body["response_format"]
	_, second := captured.all()[1].Body["response_format"]
	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, captured.all()[0].Chat.Messages, captured.all()[1].Chat.Messages)
}

func TestGenerateJSON_OtherFailuresDoNotRetry(t *testing.T) {
	server, captured := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`invalid api key`))
	})
	adapter := newAdapter(server, config.ProviderOpenRouter, "sk-bad")

	_, err := adapter.GenerateJSON(context.Background(), &llm.GenerateRequest{Prompt: "go"})

	var genErr *llm.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, llm.KindUpstreamStatus, genErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, genErr.StatusCode)
	assert.Equal(t, "invalid api key", genErr.Body)
	assert.Equal(t, "OpenAI-compatible provider request failed (401): invalid api key", genErr.Error())
	assert.Len(t, captured.all(), 1)
}

func TestGenerateJSON_ConcatenatesContentParts(t *testing.T) {
	server, _ := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":[{"text":"{"},{"type":"image"},{"text":"\"a\":1}"}]}}]}`))
	})
	adapter := newAdapter(server, config.ProviderLMStudio, "")

	out, err := llm.GenerateJSON[map[string]int](context.Background(), adapter, &llm.GenerateRequest{Prompt: "parts"})

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, out)
}

func TestGenerateJSON_EmptyContent(t *testing.T) {
	for name, body := range map[string]string{
		"blank string": completion("   \n"),
		"no choices":   `{"choices":[]}`,
		"null content": `{"choices":[{"message":{"content":null}}]}`,
		"empty parts":  `{"choices":[{"message":{"content":[{"type":"text"}]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server, _ := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
				_, _ = w.Write([]byte(body))
			})
			adapter := newAdapter(server, config.ProviderLMStudio, "")

			_, err := adapter.GenerateJSON(context.Background(), &llm.GenerateRequest{Prompt: "x"})
			assert.True(t, llm.IsKind(err, llm.KindNoContent), "got %v", err)
		})
	}
}

func TestGenerateJSON_NonJSONContent(t *testing.T) {
	server, _ := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(completion("Sure! Here is your JSON: {")))
	})
	adapter := newAdapter(server, config.ProviderLMStudio, "")

	_, err := adapter.GenerateJSON(context.Background(), &llm.GenerateRequest{Prompt: "x"})

	var genErr *llm.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, llm.KindInvalidJSON, genErr.Kind)
	assert.Equal(t, "Sure! Here is your JSON: {", genErr.Content)
	assert.Contains(t, genErr.Error(), "Sure! Here is your JSON: {")
}

func TestGenerateJSON_OpenRouterHeaders(t *testing.T) {
	server, captured := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(completion(`{}`)))
	})

	adapter := newAdapter(server, config.ProviderOpenRouter, "sk-or",
		openaicompat.WithClientContext(llm.StaticClientContext{Origin: "https://fallback.example"}))

	ctx := llm.WithAttribution(context.Background(), llm.Attribution{Origin: "https://epoch.example"})
	_, err := adapter.GenerateJSON(ctx, &llm.GenerateRequest{Prompt: "x"})
	require.NoError(t, err)

	_, err = adapter.GenerateJSON(context.Background(), &llm.GenerateRequest{Prompt: "x"})
	require.NoError(t, err)

	require.Len(t, captured.all(), 2)
	first := captured.all()[0].Header
	assert.Equal(t, "Bearer sk-or", first.Get("Authorization"))
	assert.Equal(t, "https://epoch.example", first.Get("HTTP-Referer"))
	assert.Equal(t, "Epoch Simulation", first.Get("X-Title"))
	assert.Equal(t, "https://fallback.example", captured.all()[1].Header.Get("HTTP-Referer"))
}

func TestGenerateJSON_AttributionOnlyForOpenRouter(t *testing.T) {
	server, captured := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(completion(`{}`)))
	})
	adapter := newAdapter(server, config.ProviderLMProxy, "proxy-key")

	ctx := llm.WithAttribution(context.Background(), llm.Attribution{Origin: "https://epoch.example", Title: "Epoch"})
	_, err := adapter.GenerateJSON(ctx, &llm.GenerateRequest{Prompt: "x"})
	require.NoError(t, err)

	h := captured.all()[0].Header
	assert.Equal(t, "Bearer proxy-key", h.Get("Authorization"))
	assert.Empty(t, h.Get("HTTP-Referer"))
	assert.Empty(t, h.Get("X-Title"))
}

func TestGenerateJSON_Cancelled(t *testing.T) {
	server, _ := mockEndpoint(t, func(n int, req capturedRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(completion(`{}`)))
	})
	adapter := newAdapter(server, config.ProviderLMStudio, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.GenerateJSON(ctx, &llm.GenerateRequest{Prompt: "x"})
	assert.True(t, llm.IsKind(err, llm.KindCancelled), "got %v", err)
	assert.ErrorIs(t, err, context.Canceled)
}
