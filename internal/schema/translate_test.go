package schema

import (
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/pretty"
)

func mustParse(t *testing.T, doc string) *Schema {
	t.Helper()
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	return s
}

func marshal(t *testing.T, s *jsonschema.Schema) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

func TestTranslate_NilAndMissingType(t *testing.T) {
	assert.Nil(t, Translate(nil))
	assert.Nil(t, Translate(&Schema{Description: "no type"}))
	assert.Nil(t, Translate(mustParse(t, `{"type": ""}`)))
	assert.Nil(t, Translate(mustParse(t, `{"type": false}`)))
	assert.Nil(t, Translate(mustParse(t, `{"type": 0}`)))
	assert.Nil(t, Translate(mustParse(t, `"OBJECT"`)))
}

func TestTranslate_KindPrecedence(t *testing.T) {
	cases := map[Type]string{
		TypeObject:         "object",
		TypeArray:          "array",
		TypeInteger:        "integer",
		TypeNumber:         "number",
		TypeBoolean:        "boolean",
		TypeString:         "string",
		"INTEGER_NUMBER":   "integer",
		"number_integer":   "integer",
		"DOUBLE":           "number",
		"ARRAY_OF_OBJECTS": "object",
		"TYPE_UNSPECIFIED": "string",
		"Boolean":          "boolean",
	}
	for in, want := range cases {
		got := Translate(&Schema{Type: in})
		require.NotNil(t, got, in)
		assert.Equal(t, want, got.Type, "kind %q", in)
	}
}

func TestTranslate_DropsMalformedProperty(t *testing.T) {
	s := mustParse(t, `{
		"type": "OBJECT",
		"properties": {
			"ok": {"type": "BOOLEAN"},
			"broken": {"description": "missing kind"},
			"count": {"type": "INTEGER", "description": "how many"}
		},
		"required": ["ok", "broken"]
	}`)

	out := Translate(s)
	require.NotNil(t, out)
	assert.Equal(t,
		`{"properties":{"ok":{"type":"boolean"},"count":{"type":"integer","description":"how many"}},"type":"object","required":["ok","broken"]}`,
		marshal(t, out))
}

func TestTranslate_DropsMalformedAtDepth(t *testing.T) {
	s := Object(nil,
		Prop("outer", Object(nil,
			Prop("inner", ArrayOf(Object(nil,
				Prop("bad", &Schema{}),
				Prop("good", String("")),
			), "")),
		)),
	)

	out := Translate(s)
	outer, ok := out.Properties.Get("outer")
	require.True(t, ok)
	inner, ok := outer.Properties.Get("inner")
	require.True(t, ok)
	require.NotNil(t, inner.Items)
	require.Equal(t, 1, inner.Items.Properties.Len())
	assert.Equal(t, "good", inner.Items.Properties.Oldest().Key)
}

func TestTranslate_HeterogeneousItems(t *testing.T) {
	s := mustParse(t, `{"type": "ARRAY", "items": [{"type": "STRING"}, {"nope": 1}, 7, {"type": "NUMBER"}]}`)

	out := Translate(s)
	assert.Equal(t, `{"type":"array","items":[{"type":"string"},{"type":"number"}]}`, marshal(t, out))
}

func TestTranslate_EnumCopiedVerbatim(t *testing.T) {
	s := mustParse(t, `{"type": "INTEGER", "enum": [1, 2, 12345678901234567890]}`)

	out := Translate(s)
	assert.Equal(t, `{"type":"integer","enum":[1,2,12345678901234567890]}`, marshal(t, out))
}

func TestTranslate_KeepsEmptyLists(t *testing.T) {
	s := mustParse(t, `{"type": "OBJECT", "properties": {}, "required": [], "enum": []}`)

	out := Translate(s)
	assert.Equal(t, `{"properties":{},"type":"object","enum":[],"required":[]}`, marshal(t, out))
}

func TestTranslate_SingleItemDropped(t *testing.T) {
	out := Translate(&Schema{Type: TypeArray, Items: &Schema{}})
	assert.Equal(t, `{"type":"array"}`, marshal(t, out))
}

func TestTranslate_CopiesEnumNullableDescription(t *testing.T) {
	s := mustParse(t, `{"type": "STRING", "description": "terrain", "enum": ["plains", "forest"], "nullable": false}`)

	out := Translate(s)
	assert.Equal(t, `{"type":"string","enum":["plains","forest"],"description":"terrain","nullable":false}`, marshal(t, out))
}

func TestTranslate_IdempotentOnGenericSchema(t *testing.T) {
	doc := `{"properties":{"zeta":{"type":"string","enum":["a","b"]},"alpha":{"items":{"type":"integer"},"type":"array"},"mid":{"type":"number","nullable":true}},"type":"object","required":["zeta","alpha"],"description":"root"}`

	first := Translate(mustParse(t, doc))
	assert.Equal(t, doc, marshal(t, first))

	again := Translate(mustParse(t, marshal(t, first)))
	assert.Equal(t, marshal(t, first), marshal(t, again))
}

func TestTranslate_PresetsSurviveRoundTrip(t *testing.T) {
	for _, name := range PresetNames() {
		s, ok := Preset(name)
		require.True(t, ok)

		out := Translate(s)
		require.NotNil(t, out, name)

		raw := marshal(t, out)
		assert.True(t, json.Valid([]byte(raw)), name)
		assert.Equal(t, raw, marshal(t, Translate(mustParse(t, raw))), name)
	}
}

func TestPhaseResolutionSchema_WinnerNullable(t *testing.T) {
	winner, ok := PhaseResolutionSchema().Property("winner")
	require.True(t, ok)
	require.NotNil(t, winner.Nullable)
	assert.True(t, *winner.Nullable)

	_, ok = Preset("unknown")
	assert.False(t, ok)
}

func TestPretty_MatchesCompactForm(t *testing.T) {
	out := Translate(LogEntrySchema())

	text, err := Pretty(out)
	require.NoError(t, err)
	assert.Contains(t, text, "\n")
	assert.Equal(t, marshal(t, out), string(pretty.Ugly([]byte(text))))
}

func TestSchema_UnmarshalJSON(t *testing.T) {
	var req struct {
		Schema *Schema `json:"schema"`
	}
	err := json.Unmarshal([]byte(`{"schema": {"type": "OBJECT", "properties": {"b": {"type": "STRING"}, "a": {"type": "STRING"}}}}`), &req)
	require.NoError(t, err)
	require.NotNil(t, req.Schema)
	require.Len(t, req.Schema.Properties, 2)
	assert.Equal(t, "b", req.Schema.Properties[0].Name)
	assert.Equal(t, "a", req.Schema.Properties[1].Name)

	_, err = Parse([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestParse_RepeatedPropertyKeepsLastValue(t *testing.T) {
	s := mustParse(t, `{"type": "OBJECT", "properties": {"a": {"type": "STRING"}, "b": {"type": "BOOLEAN"}, "a": {"type": "INTEGER"}}}`)

	require.Len(t, s.Properties, 2)
	assert.Equal(t, "a", s.Properties[0].Name)
	assert.Equal(t, TypeInteger, s.Properties[0].Schema.Type)
	assert.Equal(t, "b", s.Properties[1].Name)

	assert.Equal(t,
		`{"properties":{"a":{"type":"integer"},"b":{"type":"boolean"}},"type":"object"}`,
		marshal(t, Translate(s)))
}
