package api

import (
	"encoding/json"
	"time"
)

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	Prompt            string          `json:"prompt" binding:"required"`
	SystemInstruction string          `json:"system_instruction,omitempty"`
	ResponseSchema    json.RawMessage `json:"response_schema,omitempty"`
	ResponseMIMEType  string          `json:"response_mime_type,omitempty" binding:"omitempty,max=128"`
	// Preset names a built-in response schema and is ignored when
	// ResponseSchema is given.
	Preset string `json:"preset,omitempty" binding:"omitempty,oneof=scenario phase log"`
}

type GenerateResponse struct {
	ID        string          `json:"id"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	LatencyMs int64           `json:"latency_ms"`
	Result    json.RawMessage `json:"result"`
}

type ProviderInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Generation is a journaled generation as exposed over HTTP.
type Generation struct {
	ID           string          `json:"id"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	HasSystem    bool            `json:"has_system"`
	HasSchema    bool            `json:"has_schema"`
	MIMEType     string          `json:"mime_type"`
	PromptChars  int             `json:"prompt_chars"`
	Status       string          `json:"status"`
	ErrorKind    string          `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	HTTPStatus   int             `json:"http_status,omitempty"`
	LatencyMs    int64           `json:"latency_ms"`
	Output       json.RawMessage `json:"output,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type GenerationList struct {
	Data []Generation `json:"data"`
}

type GenerationStats struct {
	Provider     string  `json:"provider"`
	Status       string  `json:"status"`
	Count        int64   `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

type StatsResponse struct {
	Data []GenerationStats `json:"data"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
