package schema

import (
	"bytes"
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/pretty"
)

// prettyOptions expands every object and array, two spaces per level.
var prettyOptions = &pretty.Options{Width: 0, Prefix: "", Indent: "  ", SortKeys: false}

// Pretty renders a translated schema as indented JSON for embedding in a
// prompt. Properties keep their declaration order.
func Pretty(js *jsonschema.Schema) (string, error) {
	raw, err := json.Marshal(js)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(pretty.PrettyOptions(raw, prettyOptions))), nil
}
