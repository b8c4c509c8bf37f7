package cli

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"
)

// HighlightJSON indents a JSON document and applies terminal colours when
// they are enabled. Invalid input is returned unchanged.
func HighlightJSON(raw []byte) string {
	if !json.Valid(raw) {
		return string(raw)
	}
	out := pretty.Pretty(raw)
	if Enabled() {
		out = pretty.Color(out, nil)
	}
	return string(out)
}

// PrettyFormat marshals v and highlights the result.
func PrettyFormat(v any) string {
	var raw []byte
	switch t := v.(type) {
	case []byte:
		raw = t
	case json.RawMessage:
		raw = t
	case string:
		raw = []byte(t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%+v", v)
		}
		raw = b
	}
	return HighlightJSON(raw)
}
