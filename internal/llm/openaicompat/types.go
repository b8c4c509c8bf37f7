package openaicompat

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the subset of the chat completions body this adapter sends.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message struct {
		Content Content `json:"content"`
	} `json:"message"`
}

// Content accepts either a plain string or a list of content parts.
type Content struct {
	Text  string
	Parts []json.RawMessage
}

func (c *Content) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	switch {
	case r.IsArray():
		return json.Unmarshal(data, &c.Parts)
	case r.Type == gjson.Null:
		return nil
	default:
		c.Text = r.String()
		return nil
	}
}

// String joins the text of every part in order; parts without text count as
// empty. The result is trimmed.
func (c Content) String() string {
	if c.Parts == nil {
		return strings.TrimSpace(c.Text)
	}

	var b strings.Builder
	for _, part := range c.Parts {
		b.WriteString(gjson.GetBytes(part, "text").String())
	}
	return strings.TrimSpace(b.String())
}

func (r *ChatResponse) content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content.String()
}
