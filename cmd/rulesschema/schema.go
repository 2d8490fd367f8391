package main

import (
	"slices"

	"github.com/invopop/jsonschema"

	"github.com/milk9111/rulesplayer/scene"
)

// Document mirrors a card file.
type Document struct {
	Title     string         `json:"title,omitempty" jsonschema:"description=Title used to find the card by name"`
	Variables []Variable     `json:"variables,omitempty"`
	Clock     *Clock         `json:"clock,omitempty"`
	Library   []LibraryEntry `json:"library,omitempty"`
	Actors    []Actor        `json:"actors,omitempty"`
}

type Variable struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	InitialValue any    `json:"initialValue,omitempty"`
}

type Clock struct {
	Tempo        float64 `json:"tempo,omitempty" jsonschema:"exclusiveMinimum=0"`
	BeatsPerBar  int     `json:"beatsPerBar,omitempty" jsonschema:"minimum=1"`
	StepsPerBeat int     `json:"stepsPerBeat,omitempty" jsonschema:"minimum=1"`
}

type LibraryEntry struct {
	EntryID        string    `json:"entryId"`
	Title          string    `json:"title,omitempty"`
	ActorBlueprint Blueprint `json:"actorBlueprint"`
}

type Blueprint struct {
	Components Components `json:"components"`
}

type Components map[string]any

type Actor struct {
	ActorID       string    `json:"actorId,omitempty"`
	ParentEntryID string    `json:"parentEntryId,omitempty"`
	DrawOrder     float64   `json:"drawOrder,omitempty"`
	BP            Blueprint `json:"bp"`
}

type Rule struct {
	Trigger  Node `json:"trigger"`
	Response any  `json:"response"`
}

type Node struct {
	Name       string         `json:"name"`
	BehaviorID int            `json:"behaviorId,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
}

func ref(name string) *jsonschema.Schema {
	return &jsonschema.Schema{Ref: "#/$defs/" + name}
}

func nodeSchema(title string, names []string) *jsonschema.Schema {
	slices.Sort(names)
	names = slices.Compact(names)
	enum := make([]any, len(names))
	for i, n := range names {
		enum[i] = n
	}
	props := jsonschema.NewProperties()
	props.Set("name", &jsonschema.Schema{Type: "string", Enum: enum})
	props.Set("behaviorId", &jsonschema.Schema{Type: "integer"})
	props.Set("params", &jsonschema.Schema{Type: "object"})
	return &jsonschema.Schema{
		Type:       "object",
		Title:      title,
		Properties: props,
		Required:   []string{"name"},
	}
}

func componentsSchema(s *scene.Scene) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	s.Behaviors().ForEach(func(b scene.Behavior) {
		cp := jsonschema.NewProperties()
		cp.Set("disabled", &jsonschema.Schema{Type: "boolean"})
		for _, name := range b.PropertyNames() {
			cp.Set(name, &jsonschema.Schema{})
		}
		c := &jsonschema.Schema{Type: "object", Properties: cp}
		switch b.ID() {
		case scene.BodyID:
			cp.Set("fixtures", &jsonschema.Schema{Type: "array", Items: ref("Fixture")})
		case scene.RulesID:
			// Editing components carry raw editor data under rules.
			cp.Set("editing", &jsonschema.Schema{Type: "boolean"})
			cp.Set("rules", &jsonschema.Schema{})
			editing := jsonschema.NewProperties()
			editing.Set("editing", &jsonschema.Schema{Const: true})
			played := jsonschema.NewProperties()
			played.Set("rules", &jsonschema.Schema{Type: "array", Items: ref("Rule")})
			c.If = &jsonschema.Schema{Properties: editing, Required: []string{"editing"}}
			c.Else = &jsonschema.Schema{Properties: played}
		}
		props.Set(b.Name(), c)
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func fixtureSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("shapeType", &jsonschema.Schema{Type: "string", Enum: []any{"box", "circle", "polygon"}})
	props.Set("width", &jsonschema.Schema{Type: "number"})
	props.Set("height", &jsonschema.Schema{Type: "number"})
	props.Set("radius", &jsonschema.Schema{Type: "number"})
	props.Set("points", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "number"}})
	return &jsonschema.Schema{Type: "object", Properties: props}
}

func buildSchema(s *scene.Scene) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Document))
	schema.Title = "rulesplayer card"
	schema.Description = "A scene: variables, clock settings, a blueprint library and the actors to create."

	triggers, responses, expressions, conditions := s.Behaviors().Rules.Catalog().Names()
	defs := schema.Definitions
	defs["Components"] = componentsSchema(s)
	if bp, ok := defs["Blueprint"]; ok {
		bp.Properties.Set("components", ref("Components"))
	}
	defs["Fixture"] = fixtureSchema()
	defs["TriggerNode"] = nodeSchema("Trigger", triggers)
	defs["ResponseNode"] = nodeSchema("Response", responses)
	defs["ConditionNode"] = nodeSchema("Condition", conditions)

	expr := nodeSchema("Expression", expressions)
	expr.Properties.Delete("name")
	names, _ := nodeSchema("", expressions).Properties.Get("name")
	expr.Properties.Set("expressionType", names)
	expr.Required = []string{"expressionType"}
	defs["ExpressionNode"] = &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{{Type: "number"}, expr},
	}

	rule := jsonschema.NewProperties()
	rule.Set("trigger", ref("TriggerNode"))
	rule.Set("response", &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{ref("ResponseNode"), {Type: "integer", Minimum: "0"}},
	})
	defs["Rule"] = &jsonschema.Schema{
		Type:       "object",
		Properties: rule,
		Required:   []string{"trigger", "response"},
	}
	return schema
}
