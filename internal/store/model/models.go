package model

import (
	"database/sql"
	"time"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Generation is one journaled call to the active LLM provider.
type Generation struct {
	ID           string         `db:"id" json:"id"`
	Provider     string         `db:"provider" json:"provider"`
	Model        string         `db:"model" json:"model"`
	HasSystem    bool           `db:"has_system" json:"has_system"`
	HasSchema    bool           `db:"has_schema" json:"has_schema"`
	MIMEType     string         `db:"mime_type" json:"mime_type"`
	PromptChars  int            `db:"prompt_chars" json:"prompt_chars"`
	Status       string         `db:"status" json:"status"`
	ErrorKind    sql.NullString `db:"error_kind" json:"error_kind,omitempty"`
	ErrorMessage sql.NullString `db:"error_message" json:"error_message,omitempty"`
	HTTPStatus   sql.NullInt64  `db:"http_status" json:"http_status,omitempty"`
	LatencyMs    int64          `db:"latency_ms" json:"latency_ms"`
	Output       sql.NullString `db:"output" json:"output,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// GenerationStats is an aggregate row over the journal.
type GenerationStats struct {
	Provider     string  `db:"provider" json:"provider"`
	Status       string  `db:"status" json:"status"`
	Count        int64   `db:"count" json:"count"`
	AvgLatencyMs float64 `db:"avg_latency_ms" json:"avg_latency_ms"`
}
