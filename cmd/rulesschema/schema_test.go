package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/milk9111/rulesplayer/scene"
)

func TestBuildSchema(t *testing.T) {
	schema := buildSchema(scene.New(scene.DefaultOptions()))
	data, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`"TriggerNode"`, `"ResponseNode"`, `"ExpressionNode"`, `"ConditionNode"`,
		`"collide"`, `"wait"`, `"act on"`, `"counter value"`, `"has tag"`,
		`"Body"`, `"Counter"`, `"maxValue"`, `"tagsString"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("schema is missing %s", want)
		}
	}

	defs := schema.Definitions
	names, ok := defs["ResponseNode"].Properties.Get("name")
	if !ok {
		t.Fatalf("response node has no name property")
	}
	for i := 1; i < len(names.Enum); i++ {
		if names.Enum[i-1].(string) >= names.Enum[i].(string) {
			t.Fatalf("response names not sorted and unique: %v", names.Enum)
		}
	}
}
