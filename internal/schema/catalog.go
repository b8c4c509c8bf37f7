package schema

import (
	"fmt"
	"sort"
)

// Builders for assembling schemas in code.

func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

func Boolean(description string) *Schema {
	return &Schema{Type: TypeBoolean, Description: description}
}

func ArrayOf(item *Schema, description string) *Schema {
	return &Schema{Type: TypeArray, Description: description, Items: item}
}

func Object(required []string, props ...Property) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

func Prop(name string, s *Schema) Property {
	return Property{Name: name, Schema: s}
}

// Describe returns a shallow copy of s with a different description.
func Describe(s *Schema, description string) *Schema {
	c := *s
	c.Description = description
	return &c
}

// Nullable returns a shallow copy of s marked nullable.
func Nullable(s *Schema) *Schema {
	c := *s
	v := true
	c.Nullable = &v
	return &c
}

// Simulation presets. Grid dimensions are fixed by the simulation map.
const (
	MapWidth  = 20
	MapHeight = 20
)

func resources() *Schema {
	return ArrayOf(Object([]string{"name", "value"},
		Prop("name", String("The name of the resource (e.g., Gold, Credibility).")),
		Prop("value", Integer("The integer value of the resource.")),
	), "An array of 2-4 thematically appropriate resource objects.")
}

func abstractState() *Schema {
	return ArrayOf(Object([]string{"key", "value"},
		Prop("key", String("The key for the state variable (e.g., 'Debate Topic').")),
		Prop("value", String("The value for the state variable (can be string or number, returned as a string).")),
	), "An array of key-value pairs representing the state of an abstract scenario.")
}

func mapGrid(description, entityDesc, terrainDesc string) *Schema {
	cell := Object([]string{"entityId", "terrain"},
		Prop("entityId", Integer(entityDesc)),
		Prop("terrain", String(terrainDesc)),
	)
	return ArrayOf(ArrayOf(cell, ""), description)
}

// ScenarioSchema describes a freshly generated simulation world.
func ScenarioSchema() *Schema {
	entity := Object([]string{"name", "description", "resources"},
		Prop("name", String("The name of the entity.")),
		Prop("description", String("The description of the entity provided by the user.")),
		Prop("resources", Describe(resources(), "An array of 2-4 thematically appropriate resource objects with their starting integer values (between 50-150).")),
	)

	return Object([]string{"worldName", "worldDescription", "entities"},
		Prop("worldName", String("A creative and evocative name for the scenario.")),
		Prop("worldDescription", String("A one-paragraph summary of the scenario's setting, derived from the user's overview and environment description.")),
		Prop("entities", ArrayOf(entity, "A list of the entities provided by the user, expanded with balanced starting resources.")),
		Prop("map", mapGrid(
			fmt.Sprintf("A %dx%d grid representing the world map. This should ONLY be generated if the scenario representation is 'Territorial'.", MapHeight, MapWidth),
			"The index of the controlling entity in the entities array, or -1 for neutral/unclaimed territory.",
			"One of: plains, forest, mountain, water.",
		)),
		Prop("abstractState", Describe(abstractState(), "An array of key-value pairs for the initial state of an abstract scenario. Only generate if representation is 'Abstract'.")),
	)
}

// PhaseResolutionSchema describes the outcome of one simulation turn.
func PhaseResolutionSchema() *Schema {
	entity := Object([]string{"name", "description", "resources"},
		Prop("name", String("")),
		Prop("description", String("")),
		Prop("resources", resources()),
	)

	return Object([]string{"logEntry", "updatedEntities", "gameOver"},
		Prop("logEntry", String("A narrative summary of the events of this phase, written in a compelling, story-like manner. This should include the outcomes of all entity actions and any emergent world events.")),
		Prop("updatedEntities", ArrayOf(entity, "The complete list of entities with their properties (like resources) updated based on the phase events.")),
		Prop("updatedMap", mapGrid(
			fmt.Sprintf("The entire %dx%d map grid, updated to reflect territorial changes. Only include if the original state had a map.", MapHeight, MapWidth),
			"The new controlling entity index, or -1 for neutral.",
			"The terrain of the cell (should not change from input). One of: plains, forest, mountain, water.",
		)),
		Prop("updatedAbstractState", Describe(abstractState(), "The updated array of key-value pairs for an abstract scenario. Only include if the original state had an abstractState.")),
		Prop("gameOver", Boolean("Set to true if a winning or losing condition has been met according to the scenario's context.")),
		Prop("winner", Nullable(String("The name of the winning entity if gameOver is true, otherwise null."))),
	)
}

// LogEntrySchema describes a single narrative log line, used for
// communication and analysis requests.
func LogEntrySchema() *Schema {
	return Object([]string{"logEntry"},
		Prop("logEntry", String("A narrative summary of the outcome of this interaction, written in a compelling, story-like manner for the simulation log.")),
	)
}

var presets = map[string]func() *Schema{
	"scenario": ScenarioSchema,
	"phase":    PhaseResolutionSchema,
	"log":      LogEntrySchema,
}

// Preset returns a named simulation schema.
func Preset(name string) (*Schema, bool) {
	build, ok := presets[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
